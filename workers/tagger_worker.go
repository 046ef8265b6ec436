package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/luismavs/exposurestats/config"
	"github.com/luismavs/exposurestats/media"
	"github.com/luismavs/exposurestats/realtime"
	"github.com/luismavs/exposurestats/services"
)

// TaskType constants
const (
	TaskTag     = "tag"
	TaskPreview = "preview"
)

type TagJob struct {
	// photo path relative to the library root
	RelativePath string
	TaskType     string
}

// TagProcessor runs AI tagging and preview generation off the request path.
type TagProcessor struct {
	JobQueue  chan TagJob
	Config    *config.Config
	Tagger    *services.AITagger
	Processor *media.Processor
	Hub       *realtime.Hub
	Wg        sync.WaitGroup
	StopChan  chan struct{}
	Pending   map[string]bool
	Mutex     sync.Mutex
}

func NewTagProcessor(cfg *config.Config, tagger *services.AITagger, processor *media.Processor, hub *realtime.Hub, queueSize, numWorkers int) *TagProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	proc := &TagProcessor{
		JobQueue:  make(chan TagJob, queueSize),
		Config:    cfg,
		Tagger:    tagger,
		Processor: processor,
		Hub:       hub,
		StopChan:  make(chan struct{}),
		Pending:   make(map[string]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d tagging worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

func (tp *TagProcessor) worker(id int) {
	defer tp.Wg.Done()

	log.Printf("Tagging worker %d started", id)
	for {
		select {
		case job, ok := <-tp.JobQueue:
			if !ok {
				log.Printf("Tagging worker %d stopping: Job queue closed", id)
				return
			}

			pendingKey := fmt.Sprintf("%s:%s", job.RelativePath, job.TaskType)
			log.Printf("Worker %d: Received job type '%s' for: %s", id, job.TaskType, job.RelativePath)

			switch job.TaskType {
			case TaskTag:
				tp.processTagTask(job)
			case TaskPreview:
				tp.processPreviewTask(job)
			default:
				log.Printf("Worker %d: ERROR unknown task type '%s' for %s", id, job.TaskType, job.RelativePath)
			}

			tp.Mutex.Lock()
			delete(tp.Pending, pendingKey)
			tp.Mutex.Unlock()

		case <-tp.StopChan:
			log.Printf("Tagging worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// processTagTask asks the vision model for keywords and stores them
func (tp *TagProcessor) processTagTask(job TagJob) {
	fullPath := filepath.Join(tp.Config.LibraryPath, job.RelativePath)

	if _, statErr := os.Stat(fullPath); os.IsNotExist(statErr) {
		log.Printf("Worker: Skipping tag task for %s: original file not found", job.RelativePath)
		tp.notify(realtime.EventTagFailed, job.RelativePath, "original file not found")
		return
	}

	tags, err := tp.Tagger.TagImage(context.Background(), job.RelativePath)
	if err != nil {
		log.Printf("Worker: ERROR tagging %s: %v", job.RelativePath, err)
		tp.notify(realtime.EventTagFailed, job.RelativePath, err.Error())
		return
	}

	log.Printf("Worker: Tagged %s with %d keyword(s)", job.RelativePath, len(tags))
	if tp.Hub != nil {
		tp.Hub.Broadcast(realtime.Event{
			Type:  realtime.EventTagFinished,
			Photo: job.RelativePath,
			Extra: map[string]interface{}{"tags": tags},
		})
	}
}

// processPreviewTask generates a browser-sized preview copy
func (tp *TagProcessor) processPreviewTask(job TagJob) {
	fullPath := filepath.Join(tp.Config.LibraryPath, job.RelativePath)

	img, err := imaging.Open(fullPath, imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("Worker: ERROR opening %s for preview: %v", job.RelativePath, err)
		return
	}

	if _, err := tp.Processor.GeneratePreview(img, job.RelativePath, tp.Config.PreviewMaxSize); err != nil {
		log.Printf("Worker: ERROR generating preview for %s: %v", job.RelativePath, err)
	}
}

// QueueJob queues a specific task if not already pending
func (tp *TagProcessor) QueueJob(job TagJob) bool {
	pendingKey := fmt.Sprintf("%s:%s", job.RelativePath, job.TaskType)

	tp.Mutex.Lock()
	if tp.Pending[pendingKey] {
		tp.Mutex.Unlock()
		return false
	}

	tp.Pending[pendingKey] = true
	tp.Mutex.Unlock()

	select {
	case tp.JobQueue <- job:
		log.Printf("Queued task '%s' for: %s", job.TaskType, job.RelativePath)
		if job.TaskType == TaskTag {
			tp.notify(realtime.EventTagQueued, job.RelativePath, "")
		}
		return true
	default:
		log.Printf("WARNING: Tagging job queue full. Failed to queue task '%s' for: %s", job.TaskType, job.RelativePath)
		tp.Mutex.Lock()
		delete(tp.Pending, pendingKey)
		tp.Mutex.Unlock()
		return false
	}
}

func (tp *TagProcessor) notify(eventType, photo, errMsg string) {
	if tp.Hub == nil {
		return
	}
	tp.Hub.Broadcast(realtime.Event{Type: eventType, Photo: photo, Error: errMsg})
}

func (tp *TagProcessor) Stop() {
	log.Println("Stopping tagging workers...")
	close(tp.StopChan)
	tp.Wg.Wait()
	log.Println("All tagging workers stopped")
}
