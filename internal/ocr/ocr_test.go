package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

func TestWithTimeout_passesThrough(t *testing.T) {
	r := WithTimeout(RecognizerFunc(func(ctx context.Context, img image.Image) (string, error) {
		return "hello", nil
	}), time.Second)
	got, err := r.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}

func TestWithTimeout_deadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	r := WithTimeout(RecognizerFunc(func(ctx context.Context, img image.Image) (string, error) {
		<-block
		return "late", nil
	}), 20*time.Millisecond)

	start := time.Now()
	_, err := r.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout did not bound the call")
	}
}

func TestWithTimeout_zeroKeepsRecognizer(t *testing.T) {
	inner := RecognizerFunc(func(ctx context.Context, img image.Image) (string, error) { return "", nil })
	if _, ok := WithTimeout(inner, 0).(RecognizerFunc); !ok {
		t.Error("zero timeout should return the recognizer unchanged")
	}
}
