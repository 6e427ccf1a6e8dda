package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"vexachat/pkg/errors"
)

// AuthClient allocates uids against the hosted auth provider by registering
// anonymous users, mirroring the anonymous sign-in flow of the web client.
type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{client: client}
}

func (c *AuthClient) AllocateUID(ctx context.Context) (string, error) {
	record, err := c.client.CreateUser(ctx, &auth.UserToCreate{})
	if err != nil {
		return "", errors.Internal("Failed to create user in authentication provider", err)
	}
	return record.UID, nil
}
