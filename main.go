package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/quillpress/blog/config"
	"github.com/quillpress/blog/database"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/util/common"
	"github.com/quillpress/blog/web"
	"github.com/quillpress/blog/web/cache"
	"github.com/quillpress/blog/web/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func initLogger() {
	level, err := logger.LevelFromConfig(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.GetDatabaseConfig()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()
	if !config.HasSecretKey() {
		logger.Warning("SECRET_KEY is not set, sessions will not survive a restart")
	}

	db, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	c, err := cache.New(config.GetRedisAddr())
	if err != nil {
		log.Fatal(common.Combine(err, database.Close(db)))
	}
	if c.IsEmbedded() {
		logger.Info("BLOG_REDIS_ADDR is not set, using embedded redis")
	}
	defer func() {
		if err := common.Combine(c.Close(), database.Close(db)); err != nil {
			logger.Warning("close resources err:", err)
		}
	}()

	server, err := web.NewServer(db, c)
	if err != nil {
		log.Println(err)
		return
	}
	if err = server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server, err = web.NewServer(db, c)
			if err != nil {
				log.Println(err)
				return
			}
			if err = server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	db, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Start migrating database...")
	if err := database.Close(db); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Migration done!")
}

// withUserService opens the database for a single administrative command.
func withUserService(fn func(ctx context.Context, users *service.UserService) error) {
	db, err := openDB()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	err = fn(context.Background(), service.NewUserService(repository.New(db).Users))
	if err = common.Combine(err, database.Close(db)); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func listUsers() {
	withUserService(func(ctx context.Context, users *service.UserService) error {
		all, err := users.ListUsers(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE")
		for _, u := range all {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.Id, u.Email, u.Name, u.Role)
		}
		return w.Flush()
	})
}

func setUserRole(email, role string) {
	withUserService(func(ctx context.Context, users *service.UserService) error {
		user, err := users.SetRole(ctx, email, role)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", user.Email, user.Role)
		return nil
	})
}

func deleteUser(email string) {
	withUserService(func(ctx context.Context, users *service.UserService) error {
		if err := users.DeleteUser(ctx, email); err != nil {
			return err
		}
		fmt.Println("deleted", email)
		return nil
	})
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatal(err)
	}

	var rootCmd = &cobra.Command{
		Use: config.GetName(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage blog users",
	}

	var userListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Run: func(cmd *cobra.Command, args []string) {
			listUsers()
		},
	}

	var email, role string
	var userRoleCmd = &cobra.Command{
		Use:   "role",
		Short: "Change the role of a user (admin or reader)",
		Run: func(cmd *cobra.Command, args []string) {
			setUserRole(email, role)
		},
	}
	userRoleCmd.Flags().StringVar(&email, "email", "", "email of the user")
	userRoleCmd.Flags().StringVar(&role, "role", "", "new role: admin or reader")
	_ = userRoleCmd.MarkFlagRequired("email")
	_ = userRoleCmd.MarkFlagRequired("role")

	var deleteEmail string
	var userDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete a user without posts or comments",
		Run: func(cmd *cobra.Command, args []string) {
			deleteUser(deleteEmail)
		},
	}
	userDeleteCmd.Flags().StringVar(&deleteEmail, "email", "", "email of the user")
	_ = userDeleteCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userListCmd, userRoleCmd, userDeleteCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
