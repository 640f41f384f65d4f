package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient verifies Firebase ID tokens minted by the client SDKs.
type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken returns the uid carried by a valid, unrevoked ID token.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}
