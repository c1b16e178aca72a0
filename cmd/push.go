package cmd

import (
	"context"
	"fmt"

	"github.com/prdmaker/prdmaker/internal/config"
	"github.com/prdmaker/prdmaker/internal/integrations"
	"github.com/prdmaker/prdmaker/internal/store"
	"github.com/prdmaker/prdmaker/internal/tui"
	"github.com/spf13/cobra"
)

var pushService string

// PushCmd represents the push command.
var PushCmd = &cobra.Command{
	Use:   "push <project-id>",
	Short: "Push a project's stored features to an external tracker",
	Long: `Push every stored feature of a project to Jira or Notion.

Connection settings come from the integration saved for the project's owner.
Features are pushed one by one; failures are reported but do not roll back
items already created.`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	PushCmd.Flags().StringVarP(&pushService, "service", "s", integrations.ServiceJira, "Target service (jira/notion)")
}

func runPush(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	project, err := st.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	integration, err := st.GetIntegration(ctx, project.UserID, pushService)
	if err != nil {
		return fmt.Errorf("no %s integration configured: %w", pushService, err)
	}

	var pusher integrations.Pusher
	switch pushService {
	case integrations.ServiceJira:
		pusher = integrations.NewJiraClient(integration.ServiceURL, integration.APIKey, integration.ProjectKey)
	case integrations.ServiceNotion:
		pusher = integrations.NewNotionClient(integration.APIKey, integration.ProjectKey)
	default:
		return fmt.Errorf("unknown service: %s", pushService)
	}

	features, err := st.ListFeatures(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list features: %w", err)
	}
	if len(features) == 0 {
		return fmt.Errorf("project %s has no features to push", projectID)
	}

	fmt.Printf("Pushing %d features to %s...\n", len(features), tui.ProviderStyle.Render(pusher.Name()))
	result := pusher.PushFeatures(ctx, features)

	for _, item := range result.Created {
		fmt.Printf("%s %s → %s\n", tui.SuccessStyle.Render("✓"), item.FeatureName, item.ExternalID)
	}
	for _, item := range result.Failed {
		fmt.Printf("%s %s: %s\n", tui.ErrorStyle.Render("✗"), item.FeatureName, item.Error)
	}

	fmt.Println()
	fmt.Printf("Created: %d  Failed: %d\n", len(result.Created), len(result.Failed))
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d features failed to push", len(result.Failed))
	}
	return nil
}
