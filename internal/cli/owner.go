package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"vecdb/internal/domain"
)

var (
	initOwner      string
	initController string
	initForce      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize store metadata",
	Long: `Record the owner and controller identities and generate an instance id.
The owner defaults to the caller (see --as).

Examples:
  vecdb init
  vecdb init --owner alice --controller ops`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Print the store owner",
	Args:  cobra.NoArgs,
	RunE:  runOwner,
}

var ownerSetCmd = &cobra.Command{
	Use:   "set <identity>",
	Short: "Transfer ownership; only the current owner may do this",
	Args:  cobra.ExactArgs(1),
	RunE:  runOwnerSet,
}

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Print the store controller",
	Args:  cobra.NoArgs,
	RunE:  runController,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(controllerCmd)
	ownerCmd.AddCommand(ownerSetCmd)

	initCmd.Flags().StringVar(&initOwner, "owner", "", "owner identity (default is the caller)")
	initCmd.Flags().StringVar(&initController, "controller", "", "controller identity")
	initCmd.Flags().BoolVar(&initForce, "force", false, "reinitialize an initialized store")
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	if sess.svc.Initialized() && !initForce {
		return errors.New("store is already initialized (use --force to reinitialize)")
	}

	var owner, controller *domain.Identity
	if initOwner != "" {
		owner = domain.IdentityPtr(initOwner)
	}
	if initController != "" {
		controller = domain.IdentityPtr(initController)
	}
	if err := sess.svc.Init(callerIdentity(), owner, controller); err != nil {
		return err
	}
	if err := sess.Close(ctx); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	fmt.Println(headerStyle.Render("Store initialized"))
	printField("Owner", identityString(sess.svc.Owner()))
	printField("Controller", identityString(sess.svc.Controller()))
	printField("Instance", sess.svc.InstanceID())
	return nil
}

func runOwner(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	if !sess.svc.Initialized() {
		return fmt.Errorf("%w: run 'vecdb init' first", domain.ErrNotInitialized)
	}
	fmt.Println(identityString(sess.svc.Owner()))
	return nil
}

func runOwnerSet(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	caller := callerIdentity()
	if err := sess.svc.UpdateOwner(caller, domain.Identity(args[0])); err != nil {
		return fmt.Errorf("%s cannot change the owner: %w", caller, err)
	}
	if err := sess.Close(ctx); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	fmt.Printf("Owner is now %s\n", args[0])
	return nil
}

func runController(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.closeInto(ctx, &err)

	if !sess.svc.Initialized() {
		return fmt.Errorf("%w: run 'vecdb init' first", domain.ErrNotInitialized)
	}
	fmt.Println(identityString(sess.svc.Controller()))
	return nil
}
