// Package publisher posts a finished caption and image to the bot's social
// account. Publishing is the last, irreversible step of a job: failures here
// are fatal for the invocation and are never retried automatically.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chartwizmani/marketbot-backend/config"
	"github.com/chartwizmani/marketbot-backend/shared"
	"github.com/dghubble/oauth1"
	"github.com/sirupsen/logrus"
)

const (
	defaultMediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultCreateTweetURL = "https://api.twitter.com/2/tweets"
)

// Publisher posts caption text with an attached image.
type Publisher interface {
	Publish(ctx context.Context, text, imagePath string) error
}

// TwitterPublisher publishes through the Twitter API: media upload on the
// v1.1 endpoint, tweet creation on v2, both signed with OAuth1 user context.
type TwitterPublisher struct {
	client         *http.Client
	mediaUploadURL string
	createTweetURL string
}

// NewTwitterPublisher builds a publisher from the four environment-sourced
// credentials. A missing credential is a hard failure; the bot must not get
// as far as rendering before discovering it cannot post.
func NewTwitterPublisher(creds config.TwitterCredentials) (*TwitterPublisher, error) {
	if !creds.Complete() {
		return nil, shared.NewFetchError("twitter", shared.ReasonCredentialsMissing,
			fmt.Errorf("one or more Twitter API credentials are absent from the environment"))
	}

	oauthConfig := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	return &TwitterPublisher{
		client:         oauthConfig.Client(oauth1.NoContext, token),
		mediaUploadURL: defaultMediaUploadURL,
		createTweetURL: defaultCreateTweetURL,
	}, nil
}

// Publish uploads the image and creates the tweet referencing it.
func (p *TwitterPublisher) Publish(ctx context.Context, text, imagePath string) error {
	log := logrus.WithFields(logrus.Fields{
		"component": "TwitterPublisher",
		"image":     imagePath,
	})

	mediaID, err := p.uploadMedia(ctx, imagePath)
	if err != nil {
		return err
	}
	log.WithField("media_id", mediaID).Info("Uploaded media")

	if err := p.createTweet(ctx, text, mediaID); err != nil {
		return err
	}
	log.Info("Tweet posted")
	return nil
}

// uploadMedia sends the image as multipart form data to the v1.1 media
// endpoint and returns the media ID string.
func (p *TwitterPublisher) uploadMedia(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", imagePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.mediaUploadURL, &body)
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := p.client.Do(request)
	if err != nil {
		return "", shared.NewFetchError("twitter", shared.ReasonNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		payload, _ := io.ReadAll(response.Body)
		return "", shared.NewFetchError("twitter", shared.ReasonNetwork,
			fmt.Errorf("media upload returned HTTP %d: %s", response.StatusCode, payload))
	}

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(response.Body).Decode(&uploaded); err != nil {
		return "", shared.NewFetchError("twitter", shared.ReasonShapeMismatch, err)
	}
	if uploaded.MediaIDString == "" {
		return "", shared.NewFetchError("twitter", shared.ReasonShapeMismatch,
			fmt.Errorf("media upload response carries no media_id_string"))
	}
	return uploaded.MediaIDString, nil
}

// createTweet posts the caption with the uploaded media attached.
func (p *TwitterPublisher) createTweet(ctx context.Context, text, mediaID string) error {
	payload := map[string]interface{}{
		"text": text,
		"media": map[string]interface{}{
			"media_ids": []string{mediaID},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.createTweetURL, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.client.Do(request)
	if err != nil {
		return shared.NewFetchError("twitter", shared.ReasonNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(response.Body)
		return shared.NewFetchError("twitter", shared.ReasonNetwork,
			fmt.Errorf("create tweet returned HTTP %d: %s", response.StatusCode, body))
	}
	return nil
}
