package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
	v1 "k8s.io/externaljwt/apis/v1"

	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/key"
)

// V1Server exposes the service account key through the ExternalJWTSigner v1
// API.
type V1Server struct {
	v1.UnimplementedExternalJWTSignerServer

	logger *slog.Logger
	km     key.KeyManager
}

func NewV1Server(logger *slog.Logger, km key.KeyManager) *V1Server {
	return &V1Server{
		logger: logger,
		km:     km,
	}
}

func (svr *V1Server) Sign(ctx context.Context, req *v1.SignJWTRequest) (*v1.SignJWTResponse, error) {
	logger := svr.logger.With(slog.String("method", "Sign"))

	signed, err := svr.km.Sign(ctx, req.GetClaims())
	if err != nil {
		logger.Error("failed to sign JWT", slog.Any("error", err))
		return nil, status.Errorf(signErrorCode(err), "not able to sign JWT")
	}
	logger.Info("signed JWT", slog.String("key-id", signed.KeyID))

	return &v1.SignJWTResponse{
		Header:    signed.Header,
		Signature: signed.Signature,
	}, nil
}

func (svr *V1Server) FetchKeys(ctx context.Context, req *v1.FetchKeysRequest) (*v1.FetchKeysResponse, error) {
	logger := svr.logger.With(slog.String("method", "FetchKeys"))

	publicKeys := svr.km.PublicKeys()
	keys := make([]*v1.Key, 0, len(publicKeys))
	for _, publicKey := range publicKeys {
		keys = append(keys, &v1.Key{
			KeyId: publicKey.KeyID,
			Key:   publicKey.Key,
		})
	}
	logger.Info("fetched keys", slog.Int("num-keys", len(keys)))

	return &v1.FetchKeysResponse{
		Keys:               keys,
		DataTimestamp:      timestamppb.New(svr.km.LoadedAt()),
		RefreshHintSeconds: int64(svr.km.Expiration().Seconds()),
	}, nil
}

func (svr *V1Server) Metadata(ctx context.Context, req *v1.MetadataRequest) (*v1.MetadataResponse, error) {
	return &v1.MetadataResponse{
		MaxTokenExpirationSeconds: int64(svr.km.Expiration().Seconds()),
	}, nil
}

// signErrorCode blames the caller only for claims that could not be decoded.
func signErrorCode(err error) codes.Code {
	if fault.Is(err, fault.InvalidInput) {
		return codes.InvalidArgument
	}
	return codes.Internal
}
