package audio

// Export internal functions for testing.

var (
	ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput
	ParseTimeComponents           = parseTimeComponents
	FormatFFmpegTime              = formatFFmpegTime
	ChunkEncodingArgs             = chunkEncodingArgs
	ChunkBounds                   = chunkBounds
	TranscodeArgs                 = transcodeArgs
)

// CommandRunner exports commandRunner for testing.
type CommandRunner = commandRunner

// TempDirCreator exports tempDirCreator for testing.
type TempDirCreator = tempDirCreator

// FileRemover exports fileRemover for testing.
type FileRemover = fileRemover

// FileMover exports fileMover for testing.
type FileMover = fileMover
