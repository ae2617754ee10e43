package pipeline

import (
	"context"
	"log/slog"
	"time"

	"copytrans/state"
)

// Result is the outcome of one translation request, published to the sink in
// submission order and never mutated afterwards.
type Result struct {
	Original       string
	Translated     string
	Source         string
	DetectedSource string
	Dest           string
	Refresh        bool
	Latency        time.Duration
	Err            error
}

// Sink displays translation results. Present must not block for long; it runs
// on the worker goroutine.
type Sink interface {
	Present(Result)
}

// Recorder persists completed results. Implementations log and swallow their
// own storage errors.
type Recorder interface {
	Record(Result)
}

// DetectFunc guesses the language of a text, returning an ISO 639-1 code or
// empty. Used when the translation service does not report a detected source.
type DetectFunc func(text string) string

// Worker is the single consumer of the request queue. It snapshots whatever
// shared state it needs before calling the translation service and holds no
// lock across that call.
type Worker struct {
	queue    *Queue
	state    *state.AppState
	sink     Sink
	recorder Recorder
	detect   DetectFunc
	timeout  time.Duration
}

// NewWorker wires the worker. recorder and detect may be nil.
func NewWorker(queue *Queue, appState *state.AppState, sink Sink, recorder Recorder, detect DetectFunc, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Worker{
		queue:    queue,
		state:    appState,
		sink:     sink,
		recorder: recorder,
		detect:   detect,
		timeout:  timeout,
	}
}

// Run processes requests until the queue is closed and drained. Translation
// errors are published as error results; they never stop the loop.
func (w *Worker) Run(ctx context.Context) {
	for {
		req, ok := w.queue.Dequeue()
		if !ok {
			slog.Info("Translation worker stopped")
			return
		}
		res := w.process(ctx, req)
		w.sink.Present(res)
		if w.recorder != nil {
			w.recorder.Record(res)
		}
	}
}

func (w *Worker) process(ctx context.Context, req Request) Result {
	// Cache the language pair locally; requests enqueued before a language
	// change keep the pair they were created with.
	src, dest := req.Source, req.Dest
	if dest == "" {
		snap := w.state.Snapshot()
		src, dest = snap.Source, snap.Dest
	}

	res := Result{Original: req.Text, Source: src, Dest: dest, Refresh: req.Refresh}

	client, err := w.state.Client()
	if err != nil {
		res.Err = err
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	tr, err := client.Translate(callCtx, req.Text, src, dest)
	res.Latency = time.Since(start)
	if err != nil {
		slog.Error("Translation failed", "error", err, "dest", dest)
		res.Err = err
		return res
	}

	w.state.SetLastOriginal(req.Text)

	res.Translated = tr.Text
	res.DetectedSource = tr.DetectedSource
	if res.DetectedSource == "" && w.detect != nil {
		res.DetectedSource = w.detect(req.Text)
	}
	slog.Info("Translated", "chars", len(req.Text), "dest", dest, "latency", res.Latency)
	return res
}
