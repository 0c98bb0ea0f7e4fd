// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"spotfinder/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirestoreClient is the shared Firestore client used by the places store.
var FirestoreClient *firestore.Client

// FirebaseInit initializes the Firebase App and its Firestore client.
func FirebaseInit(ctx context.Context) (*firestore.Client, error) {
	var opts []option.ClientOption
	if path := config.AppConfig.FirebaseCredentialsPath; path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	var fbConfig *firebase.Config
	if id := config.AppConfig.FirebaseProjectID; id != "" {
		fbConfig = &firebase.Config{ProjectID: id}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Firestore client: %w", err)
	}

	FirestoreClient = client
	return client, nil
}
