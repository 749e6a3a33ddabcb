package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-launcher/pkg/authmock"
)

func newAuthMockCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "auth-mock",
		Short: "Serve the authentication API mock until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := authmock.NewServer(listen)
			if err != nil {
				return err
			}
			srv.Start()
			fmt.Fprintln(cmd.OutOrStdout(), srv.URL())

			<-cmd.Context().Done()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:0", "Listen address")
	return cmd
}
