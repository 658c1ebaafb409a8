package segment

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Segmenter produz a máscara 0/1 de água de uma imagem. A máscara pode ser
// menor que a imagem; Overlay faz a escala.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (*image.Gray, error)
}

// HTTPSegmenter envia a imagem em PNG para o serviço do modelo de segmentação
// e lê a máscara devolvida. Pixels não nulos da máscara são água.
type HTTPSegmenter struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPSegmenter retorna um segmenter cujas requisições expiram após timeout.
func NewHTTPSegmenter(endpoint string, timeout time.Duration) *HTTPSegmenter {
	return &HTTPSegmenter{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSegmenter) Segment(ctx context.Context, img image.Image) (*image.Gray, error) {
	var body bytes.Buffer
	if err := imaging.Encode(&body, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding request image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segmentation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segmentation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	mask, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding mask: %w", err)
	}
	return Binarize(mask), nil
}
