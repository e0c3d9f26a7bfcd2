package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
	"github.com/joseph-ayodele/statement-insights/internal/repository"
)

// Submitter runs one upload through the pipeline.
type Submitter interface {
	Submit(ctx context.Context, up pipeline.Upload) (*entity.ProcessingResult, error)
}

type DocumentService struct {
	proc   Submitter
	jobs   repository.JobRepository
	logger *slog.Logger
}

var _ DocumentServer = (*DocumentService)(nil)

// NewDocumentService builds the service. jobs may be nil, in which case GetJob and
// ListJobs report Unavailable.
func NewDocumentService(proc Submitter, jobs repository.JobRepository, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{proc: proc, jobs: jobs, logger: logger}
}

// Register attaches the document and health services to a gRPC server.
func (s *DocumentService) Register(g *grpc.Server) *health.Server {
	RegisterDocumentServiceServer(g, s)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return hs
}

// Process expects {filename, content (base64), content_type?, document_type?} and
// answers with the processing result. A job that ends FAILED is still an OK
// response; its failure descriptor is in the payload.
func (s *DocumentService) Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	filename := strings.TrimSpace(fields["filename"].GetStringValue())
	encoded := fields["content"].GetStringValue()
	if filename == "" {
		return nil, common.InvalidArgumentError("filename is required")
	}
	if encoded == "" {
		return nil, common.InvalidArgumentError("content is required")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.logger.Warn("process request with bad content encoding", "filename", filename, "error", err)
		return nil, common.InvalidArgumentError("content must be base64")
	}

	up := pipeline.Upload{
		Filename:     filename,
		ContentType:  fields["content_type"].GetStringValue(),
		Data:         data,
		DeclaredType: fields["document_type"].GetStringValue(),
	}
	s.logger.Info("process request", "filename", filename, "bytes", len(data), "declared_type", up.DeclaredType)

	res, err := s.proc.Submit(ctx, up)
	if res == nil {
		if err == nil {
			err = common.ErrInternal
		}
		return nil, common.ToStatus(err)
	}
	return toStruct(res)
}

// GetJob expects {job_id}.
func (s *DocumentService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, common.UnavailableError("job ledger is not configured")
	}
	raw := strings.TrimSpace(req.GetFields()["job_id"].GetStringValue())
	if raw == "" {
		return nil, common.InvalidArgumentError("job_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, common.InvalidArgumentError("job_id must be a UUID")
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		s.logger.Warn("get job failed", "job_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(job)
}

// ListJobs expects an optional {limit}.
func (s *DocumentService) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, common.UnavailableError("job ledger is not configured")
	}
	limit := int(req.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		return nil, common.InvalidArgumentError("limit must not be negative")
	}
	jobs, err := s.jobs.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Warn("list jobs failed", "error", err)
		return nil, common.ToStatus(err)
	}
	if jobs == nil {
		jobs = []*entity.Job{}
	}
	return toStruct(map[string]any{"jobs": jobs})
}

// toStruct goes through JSON so results carry the same field names as the CLI output.
// structpb has no decimal type: amounts arrive as float64 number values and clients
// format them to two decimals.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.ToStatus(common.WrapError(err, "encode response"))
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.ToStatus(common.WrapError(err, "encode response"))
	}
	return out, nil
}
