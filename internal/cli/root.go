// Package cli is the lector command line reader. It pages through a document
// in a virtual scroll view and drives the reading session, progress sync and
// annotations against a lector API server.
package cli

import (
	"context"
	"fmt"

	"lector-reader/internal/client"
	"lector-reader/internal/domain"
	"lector-reader/internal/reader"

	"github.com/spf13/cobra"
)

// API is what the commands need from the lector server.
type API interface {
	reader.EntitlementGate
	reader.SessionStore
	reader.ProgressStore
	reader.AnnotationStore
	Actor(ctx context.Context) (domain.Actor, error)
	ValidateToken(ctx context.Context) (*domain.SupabaseUser, error)
	StartSession(ctx context.Context, documentID string) (*domain.ReadingSession, error)
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	GetProgress(ctx context.Context, documentID string) (*domain.ReadingProgress, error)
	UpdateProgress(ctx context.Context, documentID string, patch domain.ProgressPatch) (*domain.ReadingProgress, error)
	UpdateAnnotation(ctx context.Context, annotationID string, patch domain.AnnotationPatch) (*domain.Annotation, error)
}

// options are the persistent flags shared by every command.
type options struct {
	cfg    domain.Config
	logger domain.Logger

	apiURL string
	token  string
	output string
}

func (o *options) format() (Format, error) {
	return ParseFormat(o.output)
}

func (o *options) api() (API, error) {
	if o.token == "" {
		return nil, fmt.Errorf("no API token: pass --token or set LECTOR_TOKEN")
	}
	return client.New(o.apiURL, o.token, o.logger), nil
}

// NewRootCmd creates the root command for lector.
func NewRootCmd(cfg domain.Config, logger domain.Logger) *cobra.Command {
	opts := &options{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:   "lector",
		Short: "Read documents from your lector library",
		Long: `Read documents from your lector library in the terminal.

lector provides tools to:
- Page through a document while your reading session and progress sync
- Highlight and underline passages
- Review and manage your annotations
- Check how far you got in a document
- Review your reading dashboard`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", cfg.GetAPIURL(), "lector API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", cfg.GetAPIToken(), "API bearer token")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", string(FormatText), "output format: text, json or yaml")

	root.AddCommand(newReadCmd(opts))
	root.AddCommand(newHighlightsCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))

	return root
}
