package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonathan/fittrack/internal/types"
	"golang.org/x/sync/errgroup"
)

// maxParallelRoutineReads bounds GetRoutines fan-out.
const maxParallelRoutineReads = 4

// Status checks the server health endpoint.
func (c *Client) Status(ctx context.Context) (*types.StatusResponse, error) {
	var out types.StatusResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("status"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, c.endpoint("api", "v1", "register", "email"), req, nil)
}

// Login exchanges credentials for an id token.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	var out types.LoginResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("api", "v1", "login", "email"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDisplayName changes the identity-owned display name.
func (c *Client) UpdateDisplayName(ctx context.Context, uid, idToken, name string) error {
	target := c.endpoint("api", "v1", "user", "displayname", uid, idToken)
	return c.do(ctx, http.MethodPut, target, types.DisplayNameRequest{DisplayName: name}, nil)
}

// GetProfile reads the user's profile document.
func (c *Client) GetProfile(ctx context.Context, uid, idToken string) (*types.ProfileResponse, error) {
	var out types.ProfileResponse
	if err := c.getData(ctx, c.endpoint("api", "v1", "user", uid, idToken), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchProfile writes exactly one dotted-path field of the profile.
func (c *Client) PatchProfile(ctx context.Context, uid, idToken string, patch types.ProfilePatch) error {
	if len(patch) != 1 {
		return fmt.Errorf("profile patch must contain exactly one field, got %d", len(patch))
	}
	return c.do(ctx, http.MethodPut, c.endpoint("api", "v1", "user", uid, idToken), patch, nil)
}

// ListRoutines reads every routine the user owns.
func (c *Client) ListRoutines(ctx context.Context, uid, idToken string) ([]types.RoutineDocument, error) {
	var out types.RoutineListResponse
	if err := c.getData(ctx, c.endpoint("api", "v1", "user", "routine", uid, idToken), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetRoutine reads one routine by its RefId.
func (c *Client) GetRoutine(ctx context.Context, refID, idToken string) (*types.RoutineDocument, error) {
	var out types.RoutineResponse
	if err := c.getData(ctx, c.routineURL(refID, idToken), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GetRoutines reads several routines concurrently, preserving the order of refIDs.
// The first failure cancels the remaining reads.
func (c *Client) GetRoutines(ctx context.Context, idToken string, refIDs []string) ([]types.RoutineDocument, error) {
	out := make([]types.RoutineDocument, len(refIDs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRoutineReads)
	for i, refID := range refIDs {
		g.Go(func() error {
			doc, err := c.GetRoutine(gCtx, refID, idToken)
			if err != nil {
				return fmt.Errorf("routine %s: %w", refID, err)
			}
			out[i] = *doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceRoutine overwrites the whole routine document addressed by refID.
func (c *Client) ReplaceRoutine(ctx context.Context, refID, idToken string, doc types.RoutineDocument) error {
	return c.do(ctx, http.MethodPut, c.routineURL(refID, idToken), doc, nil)
}

// DeleteRoutine removes a routine.
func (c *Client) DeleteRoutine(ctx context.Context, refID, idToken string) error {
	return c.do(ctx, http.MethodDelete, c.routineURL(refID, idToken), nil, nil)
}

// CreateRoutine creates an empty routine.
func (c *Client) CreateRoutine(ctx context.Context, req types.CreateRoutineRequest) (*types.CreateRoutineResponse, error) {
	var out types.CreateRoutineResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("api", "v1", "user", "routine", "create"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) routineURL(refID, idToken string) string {
	return c.endpoint("api", "v1", "user", "routine", "single", refID, idToken)
}
