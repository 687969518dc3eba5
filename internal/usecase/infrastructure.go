package usecase

import "context"

type EmbedServiceInfra interface {
	EmbedBatch(ctx context.Context, req *EmbedReq) ([]EmbedRes, error)
}

type BlobInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
