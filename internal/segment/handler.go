package segment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// S3API é a parte do client S3 de que o handler precisa.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// Handler segmenta as imagens enviadas ao bucket e grava o overlay.
type Handler struct {
	S3        S3API
	Segmenter Segmenter
	Config    *Config
	Log       logrus.FieldLogger
}

// Handle processa todos os registros do evento. Um registro com falha não
// interrompe os outros; as falhas voltam agregadas.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) error {
	var errs []error
	for _, rec := range event.Records {
		bucket := rec.S3.Bucket.Name
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			key = rec.S3.Object.Key
		}
		log := h.Log.WithFields(logrus.Fields{"bucket": bucket, "key": key})

		if h.isOwnOutput(bucket, key) {
			log.Debug("skipping generated overlay")
			continue
		}
		if bucket == h.Config.OutputBucket && h.Config.OutputPrefix == "" {
			errs = append(errs, fmt.Errorf("%s/%s: output would overwrite the source object, set OUTPUT_PREFIX", bucket, key))
			continue
		}

		outKey, err := h.process(ctx, bucket, key)
		if err != nil {
			log.WithError(err).Error("segmentation failed")
			errs = append(errs, fmt.Errorf("%s/%s: %w", bucket, key, err))
			continue
		}
		log.WithField("output", h.Config.OutputBucket+"/"+outKey).Info("overlay stored")
	}
	return errors.Join(errs...)
}

func (h *Handler) isOwnOutput(bucket, key string) bool {
	return bucket == h.Config.OutputBucket && h.Config.OutputPrefix != "" && strings.HasPrefix(key, h.Config.OutputPrefix)
}

func (h *Handler) process(ctx context.Context, bucket, key string) (string, error) {
	// 1. LER O OBJETO
	obj, err := h.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return "", fmt.Errorf("reading object: %w", err)
	}
	defer obj.Body.Close()

	// 2. DECODIFICAR (respeitando a orientação EXIF)
	src, err := imaging.Decode(obj.Body, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	img := Opaque(src)

	// 3. SEGMENTAR
	mask, err := h.Segmenter.Segment(ctx, img)
	if err != nil {
		return "", err
	}

	// 4. OVERLAY DA MAIOR REGIÃO
	combined := Overlay(img, LargestRegion(mask), h.Config.Opacity)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, combined, imaging.PNG); err != nil {
		return "", fmt.Errorf("encoding overlay: %w", err)
	}

	// 5. GRAVAR O PNG
	outKey := h.Config.OutputPrefix + key
	_, err = h.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.Config.OutputBucket),
		Key:         aws.String(outKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("writing overlay: %w", err)
	}
	return outKey, nil
}
