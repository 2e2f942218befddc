package tools

import (
	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/adamwoolhether/fetchguard/inspect"
)

// DownloadFilesParams are the inputs of the download_files tool. Nil
// pointers take the service defaults.
type DownloadFilesParams struct {
	URLs          Targets `json:"urls"`
	Filenames     Targets `json:"filenames"`
	OutputDir     string  `json:"output_dir" validate:"required"`
	MaxConcurrent *int    `json:"max_concurrent" validate:"omitnil,min=1,max=100"`
	Overwrite     bool    `json:"overwrite"`
	Timeout       *int    `json:"timeout" validate:"omitnil,min=1,max=3600"`
	RetryCount    *int    `json:"retry_count" validate:"omitnil,min=0,max=10"`
	MaxFileSizeMB *int    `json:"max_file_size" validate:"omitnil,min=1,max=1048576"`
	CheckFileType *bool   `json:"check_file_type"`
	ValidateImage bool    `json:"validate_image"`
}

// GetFileInfoParams are the inputs of the get_file_info tool.
type GetFileInfoParams struct {
	URL             string `json:"url" validate:"required"`
	Timeout         *int   `json:"timeout" validate:"omitnil,min=1,max=3600"`
	GetImageDetails bool   `json:"get_image_details"`
}

// Mode names how DownloadFiles dispatched a request.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

// DownloadResult carries exactly one of Outcome or Report, matching Mode.
type DownloadResult struct {
	Mode    Mode               `json:"mode"`
	Outcome *fetch.Outcome     `json:"outcome,omitempty"`
	Report  *fetch.BatchReport `json:"report,omitempty"`
}

// FileInfo is the get_file_info result.
type FileInfo = inspect.FileInfo
