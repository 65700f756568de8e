// Package preprocess implements the stage that applies a composed transform to every frame.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/user/frameset/pkg/pipeline"
	"github.com/user/frameset/pkg/ports"
)

// ErrNoTransform is returned when the input carries no transform function.
var ErrNoTransform = errors.New("preprocess: no transform")

// Stage transforms the frames of a collection in parallel.
type Stage struct {
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new preprocess stage. numWorkers <= 0 uses one worker per CPU.
func NewStage(logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		logger:     logger.WithComponent("preprocess"),
		numWorkers: numWorkers,
	}
}

// indexedImage holds a transformed image with its frame index.
type indexedImage struct {
	index int
	image image.Image
}

// Execute transforms every frame. Images are replaced only after all frames
// succeeded; on error the collection is left unchanged.
func (s *Stage) Execute(ctx context.Context, input pipeline.PreprocessInput) (pipeline.PreprocessResult, error) {
	if input.Transform == nil {
		return pipeline.PreprocessResult{}, ErrNoTransform
	}
	c := input.Collection
	if c == nil || c.Len() == 0 {
		return pipeline.PreprocessResult{Collection: c}, nil
	}

	numFrames := c.Len()
	workers := s.numWorkers
	if workers > numFrames {
		workers = numFrames
	}
	s.logger.Debug("Transforming %d frames with %d workers", numFrames, workers)

	jobs := make(chan int, numFrames)
	results := make(chan indexedImage, numFrames)
	errChan := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go s.worker(ctx, &wg, input, jobs, results, errChan)
	}

	for i := 0; i < numFrames; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	images := make([]image.Image, numFrames)
	for result := range results {
		images[result.index] = result.image
	}

	if err := <-errChan; err != nil {
		return pipeline.PreprocessResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return pipeline.PreprocessResult{}, err
	}

	// An unchanged image keeps its encoded bytes.
	for i, img := range images {
		if f := c.At(i); img != f.Image() {
			f.SetImage(img)
		}
	}

	s.logger.Debug("Preprocessing completed")
	return pipeline.PreprocessResult{Collection: c, Frames: numFrames}, nil
}

// worker transforms frames from the jobs channel.
func (s *Stage) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	input pipeline.PreprocessInput,
	jobs <-chan int,
	results chan<- indexedImage,
	errChan chan<- error,
) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		img, err := input.Transform(input.Collection.At(idx).Image())
		if err != nil {
			select {
			case errChan <- fmt.Errorf("transform frame %d: %w", idx, err):
			default:
			}
			return
		}

		results <- indexedImage{index: idx, image: img}
	}
}
