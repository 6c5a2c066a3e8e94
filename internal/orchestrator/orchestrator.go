package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/Ryan-gw-park/local-file-search/internal/chunk"
	"github.com/Ryan-gw-park/local-file-search/internal/chunkstore"
	"github.com/Ryan-gw-park/local-file-search/internal/embed"
	"github.com/Ryan-gw-park/local-file-search/internal/enumerate"
	"github.com/Ryan-gw-park/local-file-search/internal/errs"
	"github.com/Ryan-gw-park/local-file-search/internal/extract"
	"github.com/Ryan-gw-park/local-file-search/internal/filestore"
	"github.com/Ryan-gw-park/local-file-search/internal/lexstore"
	"github.com/Ryan-gw-park/local-file-search/internal/logging"
	"github.com/Ryan-gw-park/local-file-search/internal/manifest"
	"github.com/Ryan-gw-park/local-file-search/internal/paths"
	"github.com/Ryan-gw-park/local-file-search/internal/schema"
	"github.com/Ryan-gw-park/local-file-search/internal/tokenize"
	"github.com/Ryan-gw-park/local-file-search/internal/vectorstore"
)

// vectorIndexFile is the path under data/lancedb/ the Vector Store's HNSW
// graph is persisted to (§6: "data/{..., lancedb/, ...}").
const vectorIndexFile = "index.hnsw"

// diskRetryConfig retries a transient local disk error (a file briefly
// locked by an AV scanner or the OS, a momentary EBUSY/EIO) a few times
// with a short backoff. This is local disk, not a network call, so delays
// stay in the tens of milliseconds rather than errs.DefaultRetryConfig's
// network-oriented seconds.
var diskRetryConfig = errs.RetryConfig{
	MaxRetries:   2,
	InitialDelay: 10 * time.Millisecond,
	MaxDelay:     100 * time.Millisecond,
	Multiplier:   2.0,
	Jitter:       true,
}

// storeWriteMaxFailures trips the store-write circuit breaker after this
// many consecutive vector/lexical write failures within one Index run,
// so a genuinely broken store (disk full, corrupted index) fails the rest
// of the run fast instead of retrying file after file.
const storeWriteMaxFailures = 5

// Orchestrator is the Indexing Orchestrator (§4.9): it owns the process's
// single writer access to the Manifest, File Record, Chunk Record, Vector,
// and BM25 stores, serialized across processes by a flock on data/ (§5).
type Orchestrator struct {
	layout paths.Layout

	manifestStore *manifest.Store
	fileStore     *filestore.Store
	chunkStore    *chunkstore.Store
	vecStore      *vectorstore.Store
	lexStore      *lexstore.Store
	embedder      embed.Embedder
	errLog        *logging.IndexingErrorLog

	storeCircuit *errs.CircuitBreaker

	dataLock *flock.Flock

	mu sync.Mutex // serializes Index() runs against this Orchestrator
}

// New opens (creating if absent) every on-disk store under layout and
// acquires the single-writer lock on data/. Callers must Close the result.
func New(layout paths.Layout, embedder embed.Embedder) (*Orchestrator, error) {
	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}

	dataLock := flock.New(filepath.Join(layout.DataDir(), ".orchestrator.lock"))
	acquired, err := dataLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data directory lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("another LocalFinderX process is already indexing this data directory")
	}

	manifestStore, err := manifest.Load(layout)
	if err != nil {
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	fileStore, err := filestore.Load(layout)
	if err != nil {
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("load file record store: %w", err)
	}
	chunkStore, err := chunkstore.Load(layout)
	if err != nil {
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("load chunk record store: %w", err)
	}

	vecStore, err := vectorstore.New(vectorstore.DefaultConfig(embedder.Dimensions()))
	if err != nil {
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	vecPath := filepath.Join(layout.VectorStoreDir(), vectorIndexFile)
	if err := vecStore.Load(vecPath); err != nil {
		// Missing on first run; any other error just starts empty, matching
		// the degrade-not-abort stance the manifest and file stores take.
	}

	lexStore, err := lexstore.Open(layout.BM25IndexPath())
	if err != nil {
		_ = vecStore.Close()
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("open lexical store: %w", err)
	}

	errLog, err := logging.OpenIndexingErrorLog(layout.IndexingErrorsLogPath())
	if err != nil {
		_ = lexStore.Close()
		_ = vecStore.Close()
		_ = dataLock.Unlock()
		return nil, fmt.Errorf("open indexing error log: %w", err)
	}

	return &Orchestrator{
		layout:        layout,
		manifestStore: manifestStore,
		fileStore:     fileStore,
		chunkStore:    chunkStore,
		vecStore:      vecStore,
		lexStore:      lexStore,
		embedder:      embedder,
		errLog:        errLog,
		storeCircuit: errs.NewCircuitBreaker("store-writes",
			errs.WithMaxFailures(storeWriteMaxFailures),
			errs.WithResetTimeout(30*time.Second)),
		dataLock: dataLock,
	}, nil
}

// Close releases every store and the data directory lock.
func (o *Orchestrator) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(o.lexStore.Close())
	record(o.vecStore.Close())
	record(o.errLog.Close())
	record(o.dataLock.Unlock())
	return firstErr
}

// Index starts one incremental indexing run over opts.Roots and returns a
// Handle for progress, cancellation, and the terminal summary. Only one run
// may be in flight per Orchestrator at a time.
func (o *Orchestrator) Index(ctx context.Context, opts Options) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		progress: make(chan ProgressEvent, 64),
		result:   make(chan Summary, 1),
		errc:     make(chan error, 1),
		cancel:   cancel,
	}

	go func() {
		defer cancel()
		o.mu.Lock()
		defer o.mu.Unlock()
		summary, err := o.run(runCtx, opts, h.progress)
		close(h.progress)
		h.result <- summary
		h.errc <- err
	}()

	return h
}

// run is the state machine itself: Scanned → Classified →
// {ContentPath|MetadataPath} → Persisted → ManifestUpdated, per file,
// bounded-parallel across files (§4.9, §5).
func (o *Orchestrator) run(ctx context.Context, opts Options, progress chan<- ProgressEvent) (Summary, error) {
	entries, scanned := o.scan(ctx, opts)

	diff := o.manifestStore.Diff(scanned)
	o.handleRemovals(diff.Removed)

	toProcess := make([]string, 0, len(diff.Added)+len(diff.Changed))
	toProcess = append(toProcess, diff.Added...)
	toProcess = append(toProcess, diff.Changed...)
	addedSet := make(map[string]struct{}, len(diff.Added))
	for _, p := range diff.Added {
		addedSet[p] = struct{}{}
	}

	var (
		mu             sync.Mutex
		done, failed   int
		contentIndexed int
		metadataOnly   int
	)
	total := len(toProcess)

	concurrency := opts.MaxConcurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, path := range toProcess {
		path := path
		entry := entries[path]
		_, isAdded := addedSet[path]
		eg.Go(func() error {
			failedFile, indexedContent, runErr := o.processFile(egCtx, path, entry, isAdded, opts.Chunk)

			mu.Lock()
			done++
			if failedFile {
				failed++
			}
			if indexedContent {
				contentIndexed++
			} else {
				metadataOnly++
			}
			currentDone, currentFailed := done, failed
			mu.Unlock()

			select {
			case progress <- ProgressEvent{FilesTotal: total, Done: currentDone, Failed: currentFailed, CurrentPath: path}:
			default:
			}

			return runErr
		})
	}

	runErr := eg.Wait()

	// Best-effort persistence regardless of outcome: every committed file's
	// manifest entry only exists because both store writes for it already
	// succeeded, so partial state here is always internally consistent
	// (§5 ordering guarantee, crash-recovery invariant).
	saveErr := o.saveAll(ctx)
	if runErr == nil {
		runErr = saveErr
	}

	return Summary{
		Total:          total,
		ContentIndexed: contentIndexed,
		MetadataOnly:   metadataOnly,
		Failed:         failed,
	}, runErr
}

func (o *Orchestrator) scan(ctx context.Context, opts Options) (map[string]enumerate.Entry, []manifest.ScannedFile) {
	entries := make(map[string]enumerate.Entry)
	var scanned []manifest.ScannedFile

	for entry := range enumerate.Walk(ctx, enumerate.Options{Roots: opts.Roots, IncludeHidden: opts.IncludeHidden}) {
		entries[entry.Path] = entry
		scanned = append(scanned, manifest.ScannedFile{Path: entry.Path, Fingerprint: entry.Fingerprint})
	}

	return entries, scanned
}

// handleRemovals deletes a no-longer-present path's chunks, vectors,
// lexical documents, file record, and manifest entry (§4.1 "removed").
func (o *Orchestrator) handleRemovals(removed []string) {
	for _, path := range removed {
		entry, ok := o.manifestStore.Get(path)
		if !ok {
			continue
		}
		if err := o.vecStore.DeleteByFileID(context.Background(), entry.FileID); err != nil {
			o.logFailure(path, "vector-delete", err)
		}
		if err := o.lexStore.DeleteByFileID(context.Background(), entry.FileID); err != nil {
			o.logFailure(path, "lexical-delete", err)
		}
		o.chunkStore.DeleteByFileID(entry.FileID)
		o.fileStore.Delete(entry.FileID)
		o.manifestStore.Delete(path)
	}
}

// processFile drives one file through Classified → {ContentPath |
// MetadataPath} → Persisted → ManifestUpdated. It returns whether the file
// suffered a recoverable failure, whether it ended up content-indexed, and
// a non-nil error for an unrecoverable disk-write failure that should abort
// the whole run (§7), or the context's error when the run was cancelled
// before this file started.
func (o *Orchestrator) processFile(ctx context.Context, path string, entry enumerate.Entry, isAdded bool, chunkOpts chunk.Options) (failedFile, contentIndexed bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}

	var fileID string
	if isAdded {
		fileID = schema.NewFileID()
	} else if old, ok := o.manifestStore.Get(path); ok {
		fileID = old.FileID
		// changed → delete_by_file_id + reingest (§4.1).
		if err := o.vecStore.DeleteByFileID(ctx, fileID); err != nil {
			fatal := errs.StoreWriteError("delete vectors for reindex", err)
			o.logFailure(path, "vector-delete", fatal)
			return true, false, fatal
		}
		if err := o.lexStore.DeleteByFileID(ctx, fileID); err != nil {
			fatal := errs.StoreWriteError("delete lexical docs for reindex", err)
			o.logFailure(path, "lexical-delete", fatal)
			return true, false, fatal
		}
		o.chunkStore.DeleteByFileID(fileID)
	} else {
		fileID = schema.NewFileID()
	}

	finalContentIndexed := entry.ContentIndexed
	failed := false
	indexError := ""

	if entry.ContentIndexed {
		if err := o.contentPath(ctx, path, fileID, entry, chunkOpts); err != nil {
			if fatal := o.abortOnStoreWrite(path, "store-write", err); fatal != nil {
				return true, false, fatal
			}
			o.logFailure(path, "content-path", err)
			failed = true
			indexError = err.Error()
			finalContentIndexed = false // downgrade to metadata-only (§7)
		}
	}

	// IndexLexicalFile always runs, content-indexed or not (§4.9).
	if err := o.indexLexicalFile(ctx, fileID, entry); err != nil {
		fatal := errs.StoreWriteError("index lexical file document", err)
		o.logFailure(path, "lexical-file", fatal)
		return true, finalContentIndexed, fatal
	}

	rec := schema.FileRecord{
		SchemaVersion:  schema.CurrentSchemaVersion,
		FileID:         fileID,
		Source:         schema.SourceLocal,
		ContentIndexed: finalContentIndexed,
		Path:           path,
		Filename:       entry.Filename,
		Extension:      entry.Extension,
		SizeBytes:      entry.SizeBytes,
		CreatedAt:      entry.CreatedAt,
		ModifiedAt:     entry.ModifiedAt,
		Fingerprint:    entry.Fingerprint,
		IndexStats: schema.IndexStats{
			ChunkCount:    len(o.chunkStore.ByFileID(fileID)),
			LastIndexedAt: nowSeconds(),
			IndexError:    indexError,
		},
	}
	o.fileStore.Put(rec)

	// Manifest commit only after both store writes succeeded for this file
	// (§5 ordering guarantee).
	o.manifestStore.Put(path, schema.ManifestEntry{
		FileID:        fileID,
		Fingerprint:   entry.Fingerprint,
		LastIndexedAt: nowSeconds(),
	})

	return failed, finalContentIndexed, nil
}

// contentPath is Extract → Chunk → Tokenize → Embed → InsertChunks →
// IndexLexicalChunks (§4.9).
func (o *Orchestrator) contentPath(ctx context.Context, path, fileID string, entry enumerate.Entry, chunkOpts chunk.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var units []extract.Unit
	retryErr := errs.Retry(ctx, diskRetryConfig, func() error {
		var extractErr error
		units, extractErr = extract.Extract(path, entry.Extension)
		return extractErr
	})
	if retryErr != nil {
		return errs.ExtractionError(fmt.Sprintf("extract %s", path), retryErr)
	}

	drafts := chunk.Chunk(units, chunkOpts)
	if len(drafts) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Text
	}

	vectors, embedErr := o.embedder.EmbedBatch(ctx, texts)
	if embedErr != nil {
		// Per-chunk fallback: salvage what the embedder can still produce
		// rather than dropping the whole file (§4.9 per-chunk isolation).
		vectors = make([][]float32, len(texts))
		for i, t := range texts {
			v, err := o.embedder.Embed(ctx, t)
			if err != nil {
				continue
			}
			vectors[i] = v
		}
	}

	var (
		chunkIDs []string
		vecs     [][]float32
		lexDocs  []lexstore.Document
	)
	nextIndex := 0
	for i, d := range drafts {
		if vectors[i] == nil {
			continue // dropped chunk (§7)
		}
		tokens, tokErr := tokenize.Tokenize(d.Text)
		if tokErr != nil {
			o.logFailure(path, "tokenize", tokErr)
		}

		chunkID := schema.NewChunkID()
		o.chunkStore.Put(schema.ChunkRecord{
			SchemaVersion: schema.CurrentSchemaVersion,
			ChunkID:       chunkID,
			FileID:        fileID,
			ChunkIndex:    nextIndex,
			Text:          d.Text,
			Embedding:     vectors[i],
			Tokens:        tokens,
			Metadata:      d.Metadata,
		})
		nextIndex++

		chunkIDs = append(chunkIDs, chunkID)
		vecs = append(vecs, vectors[i])
		lexDocs = append(lexDocs, lexstore.Document{
			DocID:   chunkID,
			FileID:  fileID,
			DocKind: lexstore.DocKindChunk,
			Content: d.Text,
		})
	}

	if len(chunkIDs) == 0 {
		if embedErr != nil {
			// Not one chunk could be embedded: report it so the file is
			// downgraded to metadata-only instead of kept with no chunks.
			return errs.EmbeddingError(fmt.Sprintf("embed %s", path), embedErr)
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := o.storeCircuit.Execute(func() error {
		return o.vecStore.Add(ctx, fileID, chunkIDs, vecs)
	}); err != nil {
		return errs.StoreWriteError("insert chunk vectors", err)
	}
	if err := o.storeCircuit.Execute(func() error {
		return o.lexStore.Index(ctx, lexDocs)
	}); err != nil {
		return errs.StoreWriteError("index lexical chunks", err)
	}

	return nil
}

// indexLexicalFile writes the file-granular lexical document every file
// gets, content-indexed or not, so a filename/path match surfaces even a
// metadata-only file lexically (§3, §4.9). Routed through the same
// store-write circuit breaker as contentPath's writes, so a string of
// failures from either path trips it.
func (o *Orchestrator) indexLexicalFile(ctx context.Context, fileID string, entry enumerate.Entry) error {
	doc := lexstore.Document{
		DocID:   fileID,
		FileID:  fileID,
		DocKind: lexstore.DocKindFile,
		Content: entry.Filename + " " + entry.Path,
	}
	return o.storeCircuit.Execute(func() error {
		return o.lexStore.Index(ctx, []lexstore.Document{doc})
	})
}

// abortOnStoreWrite classifies err as a disk-write failure (§7: fatal,
// aborts the whole run) versus anything recoverable at file granularity.
func (o *Orchestrator) abortOnStoreWrite(path, stage string, err error) error {
	if errs.GetCategory(err) == errs.CategoryStoreWrite {
		o.logFailure(path, stage, err)
		return err
	}
	return nil
}

func (o *Orchestrator) logFailure(path, stage string, err error) {
	o.errLog.Record(logging.IndexingErrorEntry{
		Time:  time.Now(),
		Path:  path,
		Stage: stage,
		Error: err.Error(),
	})
}

// saveAll persists every store, retrying each write a few times on a
// transient local disk error before giving up (diskRetryConfig).
func (o *Orchestrator) saveAll(ctx context.Context) error {
	if err := errs.Retry(ctx, diskRetryConfig, o.manifestStore.Save); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := errs.Retry(ctx, diskRetryConfig, o.fileStore.Save); err != nil {
		return fmt.Errorf("save file record store: %w", err)
	}
	if err := errs.Retry(ctx, diskRetryConfig, o.chunkStore.Save); err != nil {
		return fmt.Errorf("save chunk record store: %w", err)
	}
	vecPath := filepath.Join(o.layout.VectorStoreDir(), vectorIndexFile)
	if err := errs.Retry(ctx, diskRetryConfig, func() error { return o.vecStore.Save(vecPath) }); err != nil {
		return fmt.Errorf("save vector store: %w", err)
	}
	return nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
