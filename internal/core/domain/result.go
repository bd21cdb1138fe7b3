package domain

// ResultKind discriminates the asynchronous result variants delivered to
// the host over the result channel.
type ResultKind uint8

const (
	// KindQuery is one ranked row of a query.
	KindQuery ResultKind = iota

	// KindEmbedding is one ingested or exported fragment.
	KindEmbedding

	// KindFinish terminates a batch operation.
	KindFinish

	// KindError reports a non-fatal failure inside a batch operation.
	KindError
)

// Result is the tagged union of asynchronous events. Hosts consume these
// from the service layer's result channel instead of registering raw
// callbacks.
type Result interface {
	Kind() ResultKind
}

// QueryResult carries one ranked fragment of a query, best score first.
type QueryResult struct {
	Text  string
	Score float64
}

// EmbeddingResult carries one fragment that was ingested or exported.
type EmbeddingResult struct {
	Text      string
	FragID    string
	Embedding []float32
}

// FinishResult is the terminal marker of a batch operation. RefID carries
// the document id when the operation concerned one.
type FinishResult struct {
	RefID string
}

// ErrorResult reports a component-local failure that did not abort the
// surrounding operation, such as a single chunk failing to embed.
type ErrorResult struct {
	Code int
	Err  error
}

// Kind implements Result.
func (QueryResult) Kind() ResultKind { return KindQuery }

// Kind implements Result.
func (EmbeddingResult) Kind() ResultKind { return KindEmbedding }

// Kind implements Result.
func (FinishResult) Kind() ResultKind { return KindFinish }

// Kind implements Result.
func (ErrorResult) Kind() ResultKind { return KindError }
