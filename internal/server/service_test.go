package server

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/pipeline"
	"github.com/joseph-ayodele/statement-insights/internal/repository"
)

type fakeSubmitter struct {
	got pipeline.Upload
	res *entity.ProcessingResult
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, up pipeline.Upload) (*entity.ProcessingResult, error) {
	f.got = up
	return f.res, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func dial(t *testing.T, svc *DocumentService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	svc.Register(g)
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newLedger(t *testing.T) repository.JobRepository {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{Driver: repository.DriverSQLite, DSN: ":memory:"}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(discard()) })
	require.NoError(t, repository.Migrate(context.Background(), db))
	return repository.NewJobRepository(db, discard())
}

func processRequest(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestProcessReturnsResult(t *testing.T) {
	id := uuid.New()
	totals := entity.Totals{
		TotalIncome:    entity.MustMoney("6075.00"),
		TotalOutgoings: entity.MustMoney("5243.45"),
		NetBalance:     entity.MustMoney("831.55"),
	}
	sub := &fakeSubmitter{res: &entity.ProcessingResult{
		JobID:        id,
		DocumentType: constants.Statement,
		Status:       constants.JobStatusSucceeded,
		Totals:       &totals,
	}}
	client := NewDocumentClient(dial(t, NewDocumentService(sub, nil, discard())))

	out, err := client.Process(context.Background(), processRequest(t, map[string]any{
		"filename":      "march.pdf",
		"content_type":  "application/pdf",
		"document_type": "statement",
		"content":       base64.StdEncoding.EncodeToString([]byte("%PDF-1.7")),
	}))
	require.NoError(t, err)

	assert.Equal(t, "march.pdf", sub.got.Filename)
	assert.Equal(t, []byte("%PDF-1.7"), sub.got.Data)
	assert.Equal(t, "statement", sub.got.DeclaredType)

	m := out.AsMap()
	assert.Equal(t, id.String(), m["jobId"])
	assert.Equal(t, "SUCCEEDED", m["status"])
	tot := m["totals"].(map[string]any)
	assert.InDelta(t, 831.55, tot["netBalance"].(float64), 1e-9)
}

func TestProcessFailedJobIsNotAnRPCError(t *testing.T) {
	sub := &fakeSubmitter{
		res: &entity.ProcessingResult{
			JobID:  uuid.New(),
			Status: constants.JobStatusFailed,
			Failure: &entity.Failure{
				Code:          common.CodeAdapter,
				Reason:        "model call failed",
				PartialOutput: "{\"personalInformation\":",
			},
		},
		err: common.NewAdapterError("model call failed", nil),
	}
	client := NewDocumentClient(dial(t, NewDocumentService(sub, nil, discard())))

	out, err := client.Process(context.Background(), processRequest(t, map[string]any{
		"filename": "march.pdf",
		"content":  base64.StdEncoding.EncodeToString([]byte("x")),
	}))
	require.NoError(t, err)
	failure := out.AsMap()["failure"].(map[string]any)
	assert.Equal(t, common.CodeAdapter, failure["code"])
	assert.Equal(t, "{\"personalInformation\":", failure["partialOutput"])
}

func TestProcessRejectsBadRequests(t *testing.T) {
	sub := &fakeSubmitter{err: common.ErrInvalidInput}
	client := NewDocumentClient(dial(t, NewDocumentService(sub, nil, discard())))

	cases := []struct {
		name   string
		fields map[string]any
	}{
		{"missing filename", map[string]any{"content": "eA=="}},
		{"missing content", map[string]any{"filename": "a.pdf"}},
		{"bad base64", map[string]any{"filename": "a.pdf", "content": "***"}},
		{"rejected upload", map[string]any{"filename": "a.pdf", "content": "eA=="}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Process(context.Background(), processRequest(t, tc.fields))
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestJobQueries(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()
	id := uuid.New()
	_, err := ledger.Start(ctx, id, "march.pdf", constants.Statement)
	require.NoError(t, err)

	client := NewDocumentClient(dial(t, NewDocumentService(&fakeSubmitter{}, ledger, discard())))

	out, err := client.GetJob(ctx, processRequest(t, map[string]any{"job_id": id.String()}))
	require.NoError(t, err)
	assert.Equal(t, "march.pdf", out.AsMap()["filename"])
	assert.Equal(t, "PENDING", out.AsMap()["status"])

	_, err = client.GetJob(ctx, processRequest(t, map[string]any{"job_id": uuid.New().String()}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetJob(ctx, processRequest(t, map[string]any{"job_id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	list, err := client.ListJobs(ctx, processRequest(t, map[string]any{"limit": 5}))
	require.NoError(t, err)
	assert.Len(t, list.AsMap()["jobs"], 1)
}

func TestJobQueriesWithoutLedger(t *testing.T) {
	client := NewDocumentClient(dial(t, NewDocumentService(&fakeSubmitter{}, nil, discard())))
	_, err := client.ListJobs(context.Background(), processRequest(t, nil))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealthServing(t *testing.T) {
	conn := dial(t, NewDocumentService(&fakeSubmitter{}, nil, discard()))
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
