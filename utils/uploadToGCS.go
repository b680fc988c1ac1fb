package utils

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
	// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// archiveBucketName returns the bucket raw document payloads are archived to.
// RAW_ARCHIVE_BUCKET wins; GCS_BUCKET is the shared fallback.
func archiveBucketName() string {
	if b := strings.TrimSpace(os.Getenv("RAW_ARCHIVE_BUCKET")); b != "" {
		return b
	}
	return strings.TrimSpace(os.Getenv("GCS_BUCKET"))
}

// ArchiveJSONToGCS stores a raw document payload under the archive bucket so
// extraction stays replayable after the source system expires the document.
func ArchiveJSONToGCS(ctx context.Context, objectName string, payload []byte) error {
	bucketName := archiveBucketName()
	if bucketName == "" {
		return errors.New("RAW_ARCHIVE_BUCKET or GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %q not found or not accessible: %v", bucketName, err)
	}

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"

	if _, err = wc.Write(payload); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}

	return nil
}

// ReadObjectFromGCS downloads an archived payload, used when replaying
// extraction for a document whose inline payload was pruned.
func ReadObjectFromGCS(ctx context.Context, objectName string) ([]byte, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	bucketName := archiveBucketName()

	rc, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ioutil.ReadAll(rc)
}
