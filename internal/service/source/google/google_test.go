package google

import (
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dictation-turn-service/internal/service/source"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want source.ErrorCode
	}{
		{"permission denied", status.Error(codes.PermissionDenied, "denied"), source.ErrNotAllowed},
		{"unauthenticated", status.Error(codes.Unauthenticated, "no creds"), source.ErrNotAllowed},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad language"), source.ErrLanguageNotSupported},
		{"failed precondition", status.Error(codes.FailedPrecondition, "api disabled"), source.ErrServiceNotAllowed},
		{"unavailable", status.Error(codes.Unavailable, "backend down"), source.ErrNetwork},
		{"aborted", status.Error(codes.Aborted, "stream reset"), source.ErrAborted},
		{"plain error", errors.New("boom"), source.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Code != tt.want {
				t.Errorf("classify(%v).Code = %v, want %v", tt.err, got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) && got.Unwrap() == nil {
				t.Errorf("classify(%v) lost the underlying error", tt.err)
			}
		})
	}
}

func TestClassify_RecoverabilitySplit(t *testing.T) {
	if classify(status.Error(codes.Unavailable, "down")).Code.Recoverable() {
		t.Error("network failures must be fatal to the activation")
	}
	if !classify(status.Error(codes.Aborted, "reset")).Code.Recoverable() {
		t.Error("aborted streams should be absorbed by restart")
	}
}

func TestIsStreamEnd(t *testing.T) {
	ends := []error{
		io.EOF,
		status.Error(codes.OutOfRange, "audio limit"),
		status.Error(codes.DeadlineExceeded, "timeout"),
		status.Error(codes.Canceled, "cancelled"),
	}
	for _, err := range ends {
		if !isStreamEnd(err) {
			t.Errorf("isStreamEnd(%v) = false, want true", err)
		}
	}

	if isStreamEnd(status.Error(codes.Unavailable, "down")) {
		t.Error("unavailable is a failure, not a normal stream end")
	}
	if isStreamEnd(errors.New("boom")) {
		t.Error("arbitrary errors are not normal stream ends")
	}
}
