package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SupabaseStorage handles file uploads to Supabase Storage. One client
// serves every bucket of the project; callers name the bucket per call.
type SupabaseStorage struct {
	projectRef string
	apiKey     string
	httpClient *http.Client
}

// NewSupabaseStorage creates a new Supabase Storage client
func NewSupabaseStorage(projectRef, apiKey string) *SupabaseStorage {
	return &SupabaseStorage{
		projectRef: projectRef,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Upload writes data to bucket under path and returns the storage key on
// success.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("https://%s.supabase.co/storage/v1/object/%s/%s",
		s.projectRef, bucket, url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return path, nil
}

// Delete removes a file from Supabase Storage
func (s *SupabaseStorage) Delete(ctx context.Context, bucket, path string) error {
	endpoint := fmt.Sprintf("https://%s.supabase.co/storage/v1/object/%s/%s",
		s.projectRef, bucket, url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// PublicURL returns the public URL for a file
func (s *SupabaseStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://%s.supabase.co/storage/v1/object/public/%s/%s",
		s.projectRef, bucket, url.PathEscape(path))
}

// ObjectPath recovers the storage key from a public URL. It reports false
// for URLs that do not point into the given bucket, such as placeholder
// images hosted elsewhere.
func (s *SupabaseStorage) ObjectPath(bucket, publicURL string) (string, bool) {
	prefix := fmt.Sprintf("https://%s.supabase.co/storage/v1/object/public/%s/",
		s.projectRef, bucket)

	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}

	path, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil {
		return "", false
	}

	return path, true
}
