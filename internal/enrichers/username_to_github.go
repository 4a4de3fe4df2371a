package enrichers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/flowsint/flowsint/internal/types"
)

// UsernameToGitHub looks a username up on GitHub.
// An optional GITHUB_TOKEN raises the unauthenticated rate limit.
type UsernameToGitHub struct {
	*Base
	client *github.Client
}

func (e *UsernameToGitHub) Descriptor() Descriptor {
	return Descriptor{
		Name:        "username_to_github",
		Category:    "Username",
		Description: "Look a username up on GitHub.",
		InputType:   "Username",
		OutputType:  "SocialAccount",
		Key:         "username",
		Icon:        "github",
		ParamsSchema: []ParamSpec{
			{
				Name:        "GITHUB_TOKEN",
				Kind:        ParamVaultSecret,
				Required:    false,
				Description: "Optional GitHub token to raise the API rate limit.",
			},
		},
	}
}

func (e *UsernameToGitHub) githubClient(ctx context.Context) *github.Client {
	if e.client != nil {
		return e.client
	}
	var httpClient *http.Client
	if token := e.Secret("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	e.client = github.NewClient(httpClient)
	return e.client
}

func (e *UsernameToGitHub) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Username", raw)
}

func (e *UsernameToGitHub) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	client := e.githubClient(ctx)

	results := []types.Entity{}
	for _, input := range inputs {
		username := input.(*types.Username)

		user, resp, err := client.Users.Get(ctx, username.Username)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				e.Logger.Info().Str("sketch_id", e.SketchID).Msgf("No GitHub account for %s", username.Username)
				continue
			}
			return nil, fmt.Errorf("github lookup for %s failed: %w", username.Username, err)
		}

		results = append(results, &types.SocialAccount{
			Username: user.GetLogin(),
			Platform: "github",
			URL:      user.GetHTMLURL(),
		})
	}
	return results, nil
}

func (e *UsernameToGitHub) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		username := inputs[i].(*types.Username)
		account := result.(*types.SocialAccount)
		if err := e.CreateNode(ctx, username); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, account); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, username, account, "HAS_ACCOUNT"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("GitHub account found for %s -> %s", username.Username, account.URL))
	}
	return results, nil
}

func init() {
	Registry.Register((&UsernameToGitHub{}).Descriptor(), func(base *Base) Enricher {
		return &UsernameToGitHub{Base: base}
	})
}
