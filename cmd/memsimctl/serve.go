package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/internal/workload"
	"github.com/joshuapare/memsim/memory"
	"github.com/joshuapare/memsim/memory/process"
	"github.com/joshuapare/memsim/memory/segment"
)

var serveAddr string

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator state over HTTP",
		Long: `The serve command starts a simulator and exposes it over HTTP as JSON.

Endpoints:
  GET    /stats                      aggregate statistics
  GET    /stats/paging               page counters and fault totals
  GET    /stats/segments             segment counters and free block spread
  GET    /pages                      page table (page -> owner pid)
  GET    /segments                   segment list
  GET    /processes                  all processes
  GET    /translate?id=N&addr=A      logical to physical address; add
                                     &kind=K to offset into a segment
  POST   /processes?size=N&name=S    create and allocate a process
  POST   /batch?count=N&unique=1     create and allocate up to 20 random
                                     processes
  DELETE /processes?id=N             terminate a process
  POST   /deallocate-all             release every process's memory
  POST   /strategy?kind=K            switch strategy (paging, segmentation)
  POST   /reset                      forget every process

Generated names carry a random suffix when unique=1 is given or
unique_names is set in the config file.

Example:
  memsimctl serve --addr :8080 --config memsim.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	return cmd
}

func runServe() error {
	m, cfg, err := newManager()
	if err != nil {
		return err
	}
	gen := workload.NewGenerator(cfg.MinProcessSize, cfg.MaxProcessSize, uint64(time.Now().UnixNano()))
	gen.Unique = cfg.UniqueNames

	srv := &fasthttp.Server{
		Handler: newAPI(m, gen).handle,
		Name:    "memsimctl",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(serveAddr)
	}()
	printInfo("Listening on %s\n", serveAddr)
	logger.L.Info("serve: listening", "addr", serveAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		printVerbose("Shutting down\n")
		return srv.Shutdown()
	}
}

// api maps HTTP requests onto a Manager. The Manager does its own locking;
// mu serializes use of the generator.
type api struct {
	m *memory.Manager

	mu  sync.Mutex
	gen *workload.Generator
}

func newAPI(m *memory.Manager, gen *workload.Generator) *api {
	return &api{m: m, gen: gen}
}

type apiError struct {
	Error string `json:"error"`
}

type createResponse struct {
	Process process.Info `json:"process"`
	Error   string       `json:"error,omitempty"`
}

type batchResponse struct {
	Result  workload.Result  `json:"result"`
	Summary workload.Summary `json:"summary"`
}

type segmentStatsResponse struct {
	Stats      segment.Stats          `json:"stats"`
	FreeBlocks segment.FreeBlockStats `json:"free_blocks"`
}

type translateResponse struct {
	ID       int    `json:"id"`
	Address  int    `json:"address"`
	Kind     string `json:"kind,omitempty"`
	Physical int    `json:"physical"`
}

type strategyResponse struct {
	Strategy memory.StrategyKind `json:"strategy"`
	Unplaced int                 `json:"unplaced"`
}

func (a *api) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	logger.L.Debug("serve: request", "method", string(ctx.Method()), "path", path)

	switch {
	case ctx.IsGet():
		a.get(ctx, path)
	case ctx.IsPost():
		a.post(ctx, path)
	case ctx.IsDelete() && path == "/processes":
		a.terminate(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
	}
}

func (a *api) get(ctx *fasthttp.RequestCtx, path string) {
	switch path {
	case "/stats":
		writeJSON(ctx, fasthttp.StatusOK, a.m.Stats())
	case "/stats/paging":
		writeJSON(ctx, fasthttp.StatusOK, a.m.PagingStats())
	case "/stats/segments":
		writeJSON(ctx, fasthttp.StatusOK, segmentStatsResponse{
			Stats:      a.m.SegmentStats(),
			FreeBlocks: a.m.FreeBlockStats(),
		})
	case "/translate":
		a.translate(ctx)
	case "/pages":
		writeJSON(ctx, fasthttp.StatusOK, a.m.PageOwners())
	case "/segments":
		writeJSON(ctx, fasthttp.StatusOK, a.m.Segments())
	case "/processes":
		writeJSON(ctx, fasthttp.StatusOK, a.m.Processes())
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (a *api) post(ctx *fasthttp.RequestCtx, path string) {
	switch path {
	case "/processes":
		a.create(ctx)
	case "/batch":
		a.batch(ctx)
	case "/deallocate-all":
		a.m.DeallocateAll()
		writeJSON(ctx, fasthttp.StatusOK, a.m.Stats())
	case "/strategy":
		kind, err := memory.ParseStrategy(string(ctx.QueryArgs().Peek("kind")))
		if err != nil {
			writeJSON(ctx, fasthttp.StatusBadRequest, apiError{err.Error()})
			return
		}
		unplaced, err := a.m.SetStrategy(kind)
		if err != nil {
			writeJSON(ctx, fasthttp.StatusBadRequest, apiError{err.Error()})
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, strategyResponse{Strategy: kind, Unplaced: unplaced})
	case "/reset":
		a.m.Reset()
		writeJSON(ctx, fasthttp.StatusOK, a.m.Stats())
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (a *api) create(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	size, err := args.GetUint("size")
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"size: " + err.Error()})
		return
	}
	priority := 5
	if args.Has("priority") {
		if priority, err = args.GetUint("priority"); err != nil {
			writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"priority: " + err.Error()})
			return
		}
	}

	p, err := a.m.CreateProcess(string(args.Peek("name")), size, priority)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, apiError{err.Error()})
		return
	}

	status := fasthttp.StatusCreated
	resp := createResponse{}
	if err := a.m.Allocate(p.ID); err != nil {
		status = fasthttp.StatusConflict
		if !errors.Is(err, memory.ErrCapacityExceeded) {
			status = fasthttp.StatusInternalServerError
		}
		resp.Error = err.Error()
	}
	resp.Process, _ = a.m.Lookup(p.ID)
	writeJSON(ctx, status, resp)
}

func (a *api) batch(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	count := 1
	if args.Has("count") {
		var err error
		if count, err = args.GetUint("count"); err != nil {
			writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"count: " + err.Error()})
			return
		}
	}

	a.mu.Lock()
	unique := a.gen.Unique
	a.gen.Unique = unique || args.GetBool("unique")
	res, err := workload.AddBatch(ctx, a.m, a.gen, count)
	a.gen.Unique = unique
	a.mu.Unlock()

	if err != nil {
		writeJSON(ctx, fasthttp.StatusInternalServerError, apiError{err.Error()})
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, batchResponse{Result: res, Summary: res.Summary()})
}

func (a *api) translate(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	id, err := args.GetUint("id")
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"id: " + err.Error()})
		return
	}
	addr, err := args.GetUint("addr")
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"addr: " + err.Error()})
		return
	}

	resp := translateResponse{ID: id, Address: addr}
	if args.Has("kind") {
		kind, perr := segment.ParseKind(string(args.Peek("kind")))
		if perr != nil {
			writeJSON(ctx, fasthttp.StatusBadRequest, apiError{perr.Error()})
			return
		}
		resp.Kind = kind.String()
		resp.Physical, err = a.m.TranslateSegment(id, kind, addr)
	} else {
		resp.Physical, err = a.m.TranslatePage(id, addr)
	}

	switch {
	case errors.Is(err, memory.ErrUnknownProcess):
		writeJSON(ctx, fasthttp.StatusNotFound, apiError{err.Error()})
	case err != nil:
		writeJSON(ctx, fasthttp.StatusUnprocessableEntity, apiError{err.Error()})
	default:
		writeJSON(ctx, fasthttp.StatusOK, resp)
	}
}

func (a *api) terminate(ctx *fasthttp.RequestCtx) {
	id, err := strconv.Atoi(string(ctx.QueryArgs().Peek("id")))
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, apiError{"id: " + err.Error()})
		return
	}
	if err := a.m.Terminate(id); err != nil {
		writeJSON(ctx, fasthttp.StatusNotFound, apiError{err.Error()})
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := jsonAPI.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
