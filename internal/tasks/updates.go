package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Connect Phase = iota
	FetchTracks
	FetchPlaylists
	ProcessBatch
	ProcessTrack
	Summarize
	AnalyzeCollection
	TrainModel
)

func (p Phase) String() string {
	switch p {
	case Connect:
		return "connect"
	case FetchTracks:
		return "fetch_tracks"
	case FetchPlaylists:
		return "fetch_playlists"
	case ProcessBatch:
		return "process_batch"
	case ProcessTrack:
		return "process_track"
	case Summarize:
		return "summarize"
	case AnalyzeCollection:
		return "analyze_collection"
	case TrainModel:
		return "train_model"
	default:
		return ""
	}
}

func connectUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Connect,
		Step:    1,
		Total:   1,
		Message: "Connecting to library API...",
	}
}

func fetchTracksUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   2,
		Message: "Fetching tracks from the library...",
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    2,
		Total:   2,
		Message: "Fetching playlists...",
	}
}

func batchUpdate(batch, totalBatches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessBatch,
		Step:    batch,
		Total:   totalBatches,
		Message: fmt.Sprintf("Processing batch %d/%d...", batch, totalBatches),
	}
}

func trackUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, title),
	}
}

func summarizeUpdate(result *OrganizeResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Processed %d tracks (%d updated, %d skipped, %d errors)", result.Processed, result.Updated, result.Skipped, result.Errors),
		Data:    result,
	}
}

func analyzeUpdate(message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzeCollection,
		Step:    1,
		Total:   1,
		Message: message,
	}
}
