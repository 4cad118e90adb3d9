package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"techtrust-backend/internal/pkg/apperrors"
)

// SupabaseStorage is a BlobStore backed by the Supabase Storage HTTP API.
type SupabaseStorage struct {
	BaseURL   string
	SecretKey string
	Bucket    string
	Client    *http.Client
}

var defaultClient = &http.Client{Timeout: 30 * time.Second}

func NewSupabaseStorage(baseURL, secretKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		Bucket:    bucket,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, name string, f File) (string, error) {
	if s.BaseURL == "" {
		return "", apperrors.Upload("Failed to upload image", fmt.Errorf("supabase: SUPABASE_URL is not set"))
	}
	if s.SecretKey == "" {
		return "", apperrors.Upload("Failed to upload image", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set"))
	}
	if f.Open == nil {
		return "", apperrors.Upload("Failed to upload image", fmt.Errorf("file %q has no content", f.Name))
	}
	body, err := f.Open()
	if err != nil {
		return "", apperrors.Upload("Failed to upload image", err)
	}
	defer body.Close()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", strings.TrimRight(s.BaseURL, "/"), s.Bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", apperrors.Upload("Failed to upload image", err)
	}
	// supabase-js sends the same key as apikey and bearer
	req.Header.Set("apikey", s.SecretKey)
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	if f.Size > 0 {
		req.ContentLength = f.Size
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return "", apperrors.Upload("Failed to upload image", fmt.Errorf("supabase request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperrors.Upload("Failed to upload image",
			fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return name, nil
}

func (s *SupabaseStorage) PublicURL(storedPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.BaseURL, "/"), s.Bucket, storedPath)
}

// client never writes to s; Upload runs concurrently for multi-image listings.
func (s *SupabaseStorage) client() *http.Client {
	if s.Client == nil {
		return defaultClient
	}
	return s.Client
}
