package work

import (
	"sync"
	"testing"
	"time"

	"github.com/crisislink/crisislink/server/models"
	"github.com/stretchr/testify/assert"
)

type safeBuffer struct {
	mu      sync.Mutex
	content string
}

func (b *safeBuffer) append(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content += s
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

func TestPerform(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")
	outputBuffer := &safeBuffer{}

	// Register job function
	writeToBuffer := func(args map[string]interface{}) error {
		outputBuffer.append("Hello")
		return nil
	}
	assert.Nil(t, workerPool.Register("write_to_buffer", writeToBuffer))

	err := workerPool.Perform(JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)

	workerPool.Start()

	// Wait for job to be processed
	time.Sleep(2 * time.Second)

	workerPool.Stop()

	assert.Equal(t, "Hello", outputBuffer.String(), "Expected job to write to outputBuffer")
}

func TestPerformUniqueJobIsNotEnqueuedTwice(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")
	outputBuffer := &safeBuffer{}

	writeToBuffer := func(args map[string]interface{}) error {
		outputBuffer.append("Hello")
		return nil
	}
	assert.Nil(t, workerPool.Register("write_to_buffer", writeToBuffer))

	job := JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Unique:  true,
		Args:    map[string]interface{}{},
	}

	assert.Nil(t, workerPool.Perform(job))

	// The duplicate is dropped with a warning, not an error
	assert.Nil(t, workerPool.Perform(job))

	workerPool.Start()
	time.Sleep(2 * time.Second)
	workerPool.Stop()

	assert.Equal(t, "Hello", outputBuffer.String(), "Expected the job to run exactly once")
}

func TestPerformRequiresNameAndHandler(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")

	err := workerPool.Perform(JobParams{Name: "", Handler: ""})
	assert.NotNil(t, err)
}
