package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/medreport/internal/common"
)

const extractionServiceName = "medreport.v1.ExtractionService"

// ExtractionServer is the gRPC surface. Messages are google.protobuf.Struct
// carrying the same JSON shapes as the HTTP API.
type ExtractionServer interface {
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ExtractionServiceDesc registers ExtractionServer without generated stubs.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: extractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: unaryHandler("ExtractText", ExtractionServer.ExtractText)},
		{MethodName: "ExtractFile", Handler: unaryHandler("ExtractFile", ExtractionServer.ExtractFile)},
		{MethodName: "GetJob", Handler: unaryHandler("GetJob", ExtractionServer.GetJob)},
		{MethodName: "ListJobs", Handler: unaryHandler("ListJobs", ExtractionServer.ListJobs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "medreport/v1/extraction.proto",
}

func unaryHandler(method string, call func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + extractionServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterExtractionServer attaches srv to s.
func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

// ExtractionClient calls ExtractionService over conn.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+extractionServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) ExtractText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExtractText", in, opts...)
}

func (c *ExtractionClient) ExtractFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExtractFile", in, opts...)
}

func (c *ExtractionClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetJob", in, opts...)
}

func (c *ExtractionClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListJobs", in, opts...)
}

// ExtractionService implements ExtractionServer on top of the pipeline.
type ExtractionService struct {
	pipeline  Pipeline
	jobs      JobReader
	maxUpload int64
	logger    *slog.Logger
}

func NewExtractionService(p Pipeline, jobs JobReader, maxUpload int64, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{pipeline: p, jobs: jobs, maxUpload: maxUpload, logger: logger}
}

func (s *ExtractionService) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	if err := validateText(text); err != nil {
		return nil, common.GRPCError(err)
	}
	res := s.pipeline.ExtractText(ctx, text)
	if err := checkResult(res); err != nil {
		s.logger.Error("extraction result failed validation", "error", err)
		return nil, common.GRPCError(err)
	}
	return toStruct(res)
}

func (s *ExtractionService) ExtractFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	content, err := decodeContent(stringField(req, "content"))
	if err != nil {
		return nil, common.GRPCError(err)
	}
	fr := fileRequest{
		Path:     strings.TrimSpace(stringField(req, "path")),
		Content:  content,
		Filename: stringField(req, "filename"),
		FileType: stringField(req, "file_type"),
	}
	if err := fr.validate(s.maxUpload); err != nil {
		return nil, common.GRPCError(err)
	}

	s.logger.Info("extract file request", "path", fr.Path, "filename", fr.Filename, "bytes", len(fr.Content))
	res, err := processFileRequest(ctx, s.pipeline, fr)
	if err != nil {
		s.logger.Error("extract file failed", "error", err)
		return nil, common.GRPCError(err)
	}
	return toStruct(res)
}

func (s *ExtractionService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, status.Error(codes.FailedPrecondition, "job ledger is not configured")
	}
	id, err := uuid.Parse(strings.TrimSpace(stringField(req, "job_id")))
	if err != nil {
		return nil, common.InvalidArgumentErrorf("job_id %q must be a UUID", stringField(req, "job_id"))
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, common.GRPCError(err)
	}
	return toStruct(job)
}

func (s *ExtractionService) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, status.Error(codes.FailedPrecondition, "job ledger is not configured")
	}
	limit := 20
	if v, ok := req.GetFields()["limit"]; ok {
		limit = int(v.GetNumberValue())
	}
	jobs, err := s.jobs.ListRecent(ctx, limit)
	if err != nil {
		return nil, common.GRPCError(err)
	}
	return toStruct(map[string]any{"jobs": jobs})
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// toStruct converts any JSON-marshalable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// FromStruct decodes a response Struct into v, e.g. a pipeline.Result.
func FromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Join(common.ErrInternal, err)
	}
	return nil
}
