package cmd

import (
	"admin-backend/core/metrics"
	"admin-backend/feature/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	userEmail    string
	userName     string
	userPassword string
	userRole     string
)

// userCmd groups account maintenance commands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

// userCreateCmd seeds an account, typically the first admin.
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long: `Creates a user directly in the database, bypassing the sign-up switch.
Use it to seed the first admin:

  admin-backend user create --email admin@example.com --name Admin --password ... --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logg, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logg.Sync()

		ctx := cmd.Context()
		db, err := connectDatabase(ctx, cfg, logg)
		if err != nil {
			return err
		}
		c := newCache(ctx, cfg, logg, metrics.New())
		defer c.Backend().Close()

		svc := auth.NewService(db, c, cfg.Auth, cfg.Retry, logg)
		user, err := svc.CreateUser(ctx, auth.CreateUserInput{
			Email:         userEmail,
			Name:          userName,
			Password:      userPassword,
			Role:          userRole,
			EmailVerified: true,
		})
		if err != nil {
			return err
		}
		// New accounts show up in cached list pages only after they are cleared.
		c.Namespace("users").Namespace("list").Clear(ctx)

		logg.Info("User created",
			zap.String("id", user.ID),
			zap.String("email", user.Email),
			zap.String("role", user.Role))
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password")
	userCreateCmd.Flags().StringVar(&userRole, "role", auth.RoleUser, "Role (admin or user)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	RootCmd.AddCommand(userCmd)
}
