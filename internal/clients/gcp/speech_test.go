package gcp

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
)

func TestEncodingForMime(t *testing.T) {
	t.Parallel()
	cases := []struct {
		mime string
		want speechpb.RecognitionConfig_AudioEncoding
	}{
		{"audio/wav", speechpb.RecognitionConfig_LINEAR16},
		{"audio/x-wav", speechpb.RecognitionConfig_LINEAR16},
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS},
		{"audio/flac", speechpb.RecognitionConfig_FLAC},
		{"audio/mpeg", speechpb.RecognitionConfig_MP3},
		{"application/octet-stream", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
		{"", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
	}
	for _, tc := range cases {
		if got := encodingForMime(tc.mime); got != tc.want {
			t.Fatalf("encodingForMime(%q) = %v, want %v", tc.mime, got, tc.want)
		}
	}
}

func TestRetryableCode(t *testing.T) {
	t.Parallel()
	for code, want := range map[codes.Code]bool{
		codes.Unavailable:       true,
		codes.DeadlineExceeded:  true,
		codes.ResourceExhausted: true,
		codes.Aborted:           true,
		codes.Internal:          true,
		codes.InvalidArgument:   false,
		codes.NotFound:          false,
		codes.PermissionDenied:  false,
	} {
		if got := retryableCode(code); got != want {
			t.Fatalf("retryableCode(%v) = %v, want %v", code, got, want)
		}
	}
}
