package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"pairkeep/internal/api"
	"pairkeep/internal/daemon"
	"pairkeep/internal/logging"
	"pairkeep/internal/store"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Pairkeep", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.Workspace = status.Workspace
	resp.RunDBPath = status.RunDBPath
	resp.LockPath = status.LockFilePath
	resp.LastError = status.LastError
	resp.PID = os.Getpid()
	resp.RunStats = map[string]int{
		"pending":    status.RunHealth.Pending,
		"processing": status.RunHealth.Processing,
		"applied":    status.RunHealth.Applied,
		"failed":     status.RunHealth.Failed,
	}
	if status.LastRun != nil {
		view := api.FromRun(status.LastRun)
		resp.LastRun = &view
	}
	return nil
}

func (s *service) Organize(req OrganizeRequest, resp *OrganizeResponse) error {
	s.log().Debug("organize requested", logging.String("trigger", req.Trigger))
	run, err := s.daemon.Organize(s.ctx, req.Trigger)
	if err != nil {
		return err
	}
	resp.Run = api.FromRun(run)
	return nil
}

func (s *service) RunsList(req RunsListRequest, resp *RunsListResponse) error {
	statuses := make([]store.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, ok := store.ParseStatus(raw)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	runs, err := s.daemon.ListRuns(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunView, 0, len(runs))
	for _, run := range runs {
		if run == nil {
			continue
		}
		resp.Runs = append(resp.Runs, api.FromRun(run))
	}
	return nil
}

func (s *service) RunDescribe(req RunDescribeRequest, resp *RunDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid run id %d", req.ID)
	}
	run, err := s.daemon.GetRun(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", req.ID)
	}
	resp.Run = api.FromRunDetail(run)
	return nil
}

func (s *service) RunsRetry(req RunsRetryRequest, resp *RunsRetryResponse) error {
	s.log().Debug("run retry requested", logging.Int("run_count", len(req.IDs)))
	updated, err := s.daemon.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	return nil
}

func (s *service) RunsClearCompleted(_ RunsClearCompletedRequest, resp *RunsClearCompletedResponse) error {
	removed, err := s.daemon.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) RunsClearAll(_ RunsClearAllRequest, resp *RunsClearAllResponse) error {
	removed, err := s.daemon.ClearAll(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) GroupingsList(_ GroupingsListRequest, resp *GroupingsListResponse) error {
	groupings, err := s.daemon.ListGroupings(s.ctx)
	if err != nil {
		return err
	}
	resp.Groupings = make([]GroupingView, 0, len(groupings))
	for _, grouping := range groupings {
		resp.Groupings = append(resp.Groupings, api.FromGrouping(grouping))
	}
	return nil
}

func (s *service) ExportCalendar(_ ExportCalendarRequest, resp *ExportCalendarResponse) error {
	path, events, err := s.daemon.ExportCalendar(s.ctx)
	if err != nil {
		return err
	}
	resp.Path = path
	resp.Events = events
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	result, err := s.daemon.LogTail(req.Offset, req.Limit)
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
