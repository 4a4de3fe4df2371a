package enrichers

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// EmailToGravatar looks up the Gravatar profile of an email address
type EmailToGravatar struct {
	*Base
}

type gravatarProfile struct {
	Entry []struct {
		DisplayName     string `json:"displayName"`
		AboutMe         string `json:"aboutMe"`
		CurrentLocation string `json:"currentLocation"`
	} `json:"entry"`
}

func (e *EmailToGravatar) Descriptor() Descriptor {
	return Descriptor{
		Name:        "email_to_gravatar",
		Category:    "Email",
		Description: "Look up the Gravatar profile of an email address.",
		InputType:   "Email",
		OutputType:  "Gravatar",
		Key:         "email",
		Icon:        "user",
	}
}

func (e *EmailToGravatar) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Email", raw)
}

func (e *EmailToGravatar) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		email := input.(*types.Email)

		hash := fmt.Sprintf("%x", md5.Sum([]byte(strings.ToLower(email.Email))))
		avatarURL := fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=404", hash)

		status, err := e.Client.Head(ctx, avatarURL)
		if err != nil {
			e.Logger.Error().Str("sketch_id", e.SketchID).Msgf("Error checking Gravatar for %s: %v", email.Email, err)
			continue
		}
		if status != 200 {
			continue
		}

		gravatar := &types.Gravatar{
			Hash:       hash,
			Src:        avatarURL,
			ProfileURL: fmt.Sprintf("https://www.gravatar.com/%s.json", hash),
			Exists:     true,
		}

		if body, status, err := e.Client.GetBody(ctx, gravatar.ProfileURL, nil); err == nil && status == 200 {
			var profile gravatarProfile
			if err := json.Unmarshal(body, &profile); err == nil && len(profile.Entry) > 0 {
				entry := profile.Entry[0]
				gravatar.DisplayName = entry.DisplayName
				gravatar.AboutMe = entry.AboutMe
				gravatar.Location = entry.CurrentLocation
			}
		}

		results = append(results, gravatar)
	}
	return results, nil
}

func (e *EmailToGravatar) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		email := inputs[i].(*types.Email)
		gravatar := result.(*types.Gravatar)
		if err := e.CreateNode(ctx, email); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, gravatar); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, email, gravatar, "HAS_GRAVATAR"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("Gravatar found for email %s -> hash: %s", email.Email, gravatar.Hash))
	}
	return results, nil
}

func init() {
	Registry.Register((&EmailToGravatar{}).Descriptor(), func(base *Base) Enricher {
		return &EmailToGravatar{Base: base}
	})
}
