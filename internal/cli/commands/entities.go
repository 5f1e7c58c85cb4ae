package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the tables exposed by the data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session) error {
				entities, err := s.Client.ListEntities(cmd.Context())
				if err != nil {
					return err
				}
				return renderEntities(cmd.OutOrStdout(), resolveOutput(s.Cfg.Output, cmd.OutOrStdout()), entities)
			})
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "describe <entity>",
		Short:   "Show the fields of one entity",
		Example: "  leapconnect describe sales.orders",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				fields, err := s.Client.DescribeEntity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderFields(cmd.OutOrStdout(), resolveOutput(s.Cfg.Output, cmd.OutOrStdout()), fields)
			})
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [entity...]",
		Short: "Describe several entities, or every entity when none are named",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				ctx := cmd.Context()
				ids := args
				if len(ids) == 0 {
					entities, err := s.Client.ListEntities(ctx)
					if err != nil {
						return err
					}
					for _, e := range entities {
						ids = append(ids, e.EntityIdentifier)
					}
				}
				schema, err := s.Client.DescribeAll(ctx, ids)
				if err != nil {
					return err
				}
				return renderSchema(cmd.OutOrStdout(), resolveOutput(s.Cfg.Output, cmd.OutOrStdout()), schema)
			})
		},
	}
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the data source is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session) error {
				if err := s.Client.Ping(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", s.Client.Adapter().Name())
				return nil
			})
		},
	}
}
