package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/devserver"
	"github.com/nhle/taskboard/internal/model"
)

// seedPassword is shared by every seeded account.
const seedPassword = "taskboard"

// seedUsers are the accounts the reference backend accepts.
var seedUsers = []devserver.User{
	{User: model.User{ID: "1", Username: "alice", DisplayName: "Alice Nguyen", Department: "Engineering", Role: model.RoleEmployee}, Password: seedPassword},
	{User: model.User{ID: "2", Username: "bob", DisplayName: "Bob Tran", Department: "Engineering", Role: model.RoleManager}, Password: seedPassword},
	{User: model.User{ID: "3", Username: "carol", DisplayName: "Carol Le", Department: "Operations", Role: model.RoleEmployee}, Password: seedPassword},
	{User: model.User{ID: "4", Username: "admin", DisplayName: "Admin", Department: "Operations", Role: model.RoleAdmin}, Password: seedPassword},
}

func devserverCmd(opts *options) *cobra.Command {
	var (
		addr   string
		secret string
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the in-memory reference backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger("info", opts.debug, os.Stderr)

			handler := devserver.New(seedUsers, []byte(secret),
				devserver.WithLogger(log),
				devserver.WithDepartments("Engineering", "Operations", "Finance", "Human Resources"),
			)
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Logf("[INFO] reference backend listening on %s", addr)
				for _, u := range seedUsers {
					log.Logf("[INFO] account %s (%s, %s) password %q", u.Username, u.Department, u.Role, u.Password)
				}
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serving on %s: %w", addr, err)
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Logf("[INFO] shutting down")
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "taskboard-dev-secret", "Token signing secret")
	return cmd
}
