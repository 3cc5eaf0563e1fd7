// Package vision はGoogle Cloud Vision APIを使用してスクリーンショットからテキストを読み取るクライアントを提供します。
package vision

import (
	"context"
	"fmt"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"fxchart_bot/internal/feature/conversion/usecase"
)

// annotator is the part of the Vision client used here.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// VisionTextReader reads text from screenshots with Cloud Vision text detection.
type VisionTextReader struct {
	client annotator
	closer func() error
}

// VisionTextReaderがImageTextReaderを実装していることをコンパイル時に検証します。
var _ usecase.ImageTextReader = (*VisionTextReader)(nil)

// NewVisionTextReader はADCを使用してVisionTextReaderの新しいインスタンスを生成します。
func NewVisionTextReader(ctx context.Context) (*VisionTextReader, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionTextReader{client: client, closer: client.Close}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionTextReader) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

// ReadText returns the full text detected in image.
func (v *VisionTextReader) ReadText(ctx context.Context, image []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision API request failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}
	if resp.Responses[0].Error != nil {
		return "", fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}
	if fta := resp.Responses[0].FullTextAnnotation; fta != nil {
		return fta.Text, nil
	}
	if anns := resp.Responses[0].TextAnnotations; len(anns) > 0 {
		// 先頭の要素が画像全体のテキスト
		return anns[0].Description, nil
	}
	return "", nil
}
