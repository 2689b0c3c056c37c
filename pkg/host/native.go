package host

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

// DefaultMaxValueSize is the largest value a kernel may store: values are
// sized with signed 32-bit integers on a rollup host.
const DefaultMaxValueSize = math.MaxInt32

var _ Runtime = (*NativeHost)(nil)

// NativeHost runs kernels natively against a path tree. It is owned by a
// single goroutine: inputs, level counters and rounds are not synchronized.
type NativeHost struct {
	tree    *pathtree.Tree
	journal *Journal
	logger  *zap.Logger

	inputs      []inbox.Message
	level       uint32
	nextIndex   uint32
	outputIndex uint32

	maxValueSize int
	meter        meter
}

// Option configures a NativeHost.
type Option func(*NativeHost)

// WithJournal records debug and outbox output in j.
func WithJournal(j *Journal) Option {
	return func(h *NativeHost) { h.journal = j }
}

// WithLogger sets the logger kernel debug output is written to.
func WithLogger(l *zap.Logger) Option {
	return func(h *NativeHost) { h.logger = l }
}

// WithMaxValueSize caps the size of stored values.
func WithMaxValueSize(n int) Option {
	return func(h *NativeHost) { h.maxValueSize = n }
}

// New creates a host over tree.
func New(tree *pathtree.Tree, opts ...Option) *NativeHost {
	h := &NativeHost{
		tree:         tree,
		logger:       zap.NewNop(),
		maxValueSize: DefaultMaxValueSize,
		meter:        newMeter(context.Background(), Budget{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.journal == nil {
		h.journal = NewJournal(0)
	}
	return h
}

// Journal returns the journal the host records into.
func (h *NativeHost) Journal() *Journal {
	return h.journal
}

// Level returns the level the host currently addresses inputs to.
func (h *NativeHost) Level() uint32 {
	return h.level
}

// Pending is the number of inputs not read yet.
func (h *NativeHost) Pending() int {
	return len(h.inputs)
}

// AddInput queues payload addressed to the current level and next index.
func (h *NativeHost) AddInput(payload []byte) inbox.Message {
	msg := inbox.NewMessage(h.level, h.nextIndex, payload)
	h.nextIndex++
	h.inputs = append(h.inputs, msg)
	return msg
}

// AddMessage queues an already addressed message. A message of the current
// level moves the index counter past it.
func (h *NativeHost) AddMessage(msg inbox.Message) {
	if msg.Level == h.level && msg.Index >= h.nextIndex {
		h.nextIndex = msg.Index + 1
	}
	h.inputs = append(h.inputs, msg)
}

// SetLevel moves the counters to level. Indices restart at zero.
func (h *NativeHost) SetLevel(level uint32) {
	h.level = level
	h.nextIndex = 0
	h.outputIndex = 0
}

// BeginRound starts metering host calls against budget.
func (h *NativeHost) BeginRound(ctx context.Context, budget Budget) {
	h.meter = newMeter(ctx, budget)
}

// EndRound stops metering and reports what the round used. Inputs the
// kernel did not read are dropped.
func (h *NativeHost) EndRound() RoundStats {
	stats := h.meter.stats()
	h.meter = newMeter(context.Background(), Budget{})
	h.inputs = nil
	return stats
}

func (h *NativeHost) ReadInput() (*inbox.Message, error) {
	if err := h.meter.charge(); err != nil {
		return nil, err
	}
	if len(h.inputs) == 0 {
		return nil, nil
	}
	msg := h.inputs[0]
	h.inputs = h.inputs[1:]
	return &msg, nil
}

func (h *NativeHost) StoreHas(path string) (pathtree.ValueType, error) {
	if err := h.enter(path); err != nil {
		return pathtree.ValueTypeNone, err
	}
	vt, err := h.tree.Has(h.meter.ctx, path)
	return vt, translate(err)
}

func (h *NativeHost) StoreRead(path string, offset, maxBytes int) ([]byte, error) {
	if err := h.enter(path); err != nil {
		return nil, err
	}
	if offset < 0 || maxBytes < 0 {
		return nil, fmt.Errorf("%w: negative offset or length", ErrStoreInvalidAccess)
	}
	value, err := h.readValue(path)
	if err != nil {
		return nil, err
	}
	if offset > len(value) {
		return nil, fmt.Errorf("%w: offset %d past value of %d bytes", ErrStoreInvalidAccess, offset, len(value))
	}
	if maxBytes > len(value)-offset {
		maxBytes = len(value) - offset
	}
	return append([]byte{}, value[offset:offset+maxBytes]...), nil
}

func (h *NativeHost) StoreWrite(path string, src []byte, offset int) error {
	if err := h.enter(path); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrStoreInvalidAccess)
	}
	if len(src) > h.maxValueSize || offset > h.maxValueSize-len(src) {
		return fmt.Errorf("%w: %d bytes at offset %d", ErrStoreValueSizeExceeded, len(src), offset)
	}

	value, _, err := h.tree.Read(h.meter.ctx, path)
	if err != nil {
		return translate(err)
	}
	if offset > len(value) {
		return fmt.Errorf("%w: offset %d past value of %d bytes", ErrStoreInvalidAccess, offset, len(value))
	}

	size := max(len(value), offset+len(src))
	next := make([]byte, size)
	copy(next, value)
	copy(next[offset:], src)

	_, err = h.tree.Write(h.meter.ctx, path, next)
	return translate(err)
}

func (h *NativeHost) StoreDelete(path string) error {
	if err := h.enter(path); err != nil {
		return err
	}
	if err := h.requireNode(path); err != nil {
		return err
	}
	return translate(h.tree.Delete(h.meter.ctx, path))
}

func (h *NativeHost) StoreCopy(from, to string) error {
	if err := h.enter(from, to); err != nil {
		return err
	}
	return translate(h.tree.Copy(h.meter.ctx, from, to))
}

func (h *NativeHost) StoreMove(from, to string) error {
	if err := h.enter(from, to); err != nil {
		return err
	}
	return translate(h.tree.Move(h.meter.ctx, from, to))
}

func (h *NativeHost) StoreValueSize(path string) (int, error) {
	if err := h.enter(path); err != nil {
		return 0, err
	}
	value, err := h.readValue(path)
	if err != nil {
		return 0, err
	}
	return len(value), nil
}

func (h *NativeHost) StoreCountSubkeys(path string) (int64, error) {
	if err := h.enter(path); err != nil {
		return 0, err
	}
	keys, err := h.tree.Subkeys(h.meter.ctx, path)
	if err != nil {
		return 0, translate(err)
	}
	return int64(len(keys)), nil
}

func (h *NativeHost) StoreGetSubkey(path string, index int64) (string, error) {
	if err := h.enter(path); err != nil {
		return "", err
	}
	keys, err := h.tree.Subkeys(h.meter.ctx, path)
	if err != nil {
		return "", translate(err)
	}
	if index < 0 || index >= int64(len(keys)) {
		return "", fmt.Errorf("%w: subkey %d of %d", ErrStoreInvalidAccess, index, len(keys))
	}
	return pathtree.Join(path, keys[index]), nil
}

// WriteDebug has no error to report: output past an exhausted budget is dropped.
func (h *NativeHost) WriteDebug(msg string) {
	if h.meter.charge() != nil {
		return
	}
	h.logger.Debug("kernel debug", zap.Uint32("level", h.level), zap.String("msg", msg))
	h.journal.recordDebug(DebugLine{Level: h.level, Text: msg, Time: time.Now()})
}

func (h *NativeHost) WriteOutput(data []byte) error {
	if err := h.meter.charge(); err != nil {
		return err
	}
	h.journal.recordOutput(OutboxMessage{
		Level:   h.level,
		Index:   h.outputIndex,
		Payload: append([]byte{}, data...),
	})
	h.outputIndex++
	return nil
}

// enter charges one tick and validates the paths of a store call.
func (h *NativeHost) enter(paths ...string) error {
	if err := h.meter.charge(); err != nil {
		return err
	}
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}
	return nil
}

func (h *NativeHost) requireNode(path string) error {
	vt, err := h.tree.Has(h.meter.ctx, path)
	if err != nil {
		return translate(err)
	}
	if vt == pathtree.ValueTypeNone {
		return fmt.Errorf("%w: %s", ErrStoreNotANode, path)
	}
	return nil
}

func (h *NativeHost) readValue(path string) ([]byte, error) {
	vt, err := h.tree.Has(h.meter.ctx, path)
	if err != nil {
		return nil, translate(err)
	}
	switch vt {
	case pathtree.ValueTypeNone:
		return nil, fmt.Errorf("%w: %s", ErrStoreNotANode, path)
	case pathtree.ValueTypeSubtree:
		return nil, fmt.Errorf("%w: %s", ErrStoreNotAValue, path)
	}
	value, _, err := h.tree.Read(h.meter.ctx, path)
	return value, translate(err)
}
