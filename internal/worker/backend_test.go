package worker

import "context"

// fakeBackend is a deterministic AnalyserBackend test double. Each
// method is backed by a function field so individual tests can override
// only the behaviour they need.
type fakeBackend struct {
	transcribe     func(ctx context.Context, audioPath string, opts ASROptions) (ASRResult, error)
	detectText     func(ctx context.Context, frame Frame, region Rect) ([]TextDetection, error)
	detectObjects  func(ctx context.Context, frame Frame) ([]Detection, error)
	detectFaces    func(ctx context.Context, frame Frame) ([]Detection, error)
	saveScreenshot func(ctx context.Context, frame Frame, destPath string) error

	screenshotCalls int
}

func (f *fakeBackend) Transcribe(ctx context.Context, audioPath string, opts ASROptions) (ASRResult, error) {
	if f.transcribe != nil {
		return f.transcribe(ctx, audioPath, opts)
	}
	return ASRResult{}, nil
}

func (f *fakeBackend) DetectText(ctx context.Context, frame Frame, region Rect) ([]TextDetection, error) {
	if f.detectText != nil {
		return f.detectText(ctx, frame, region)
	}
	return nil, nil
}

func (f *fakeBackend) DetectObjects(ctx context.Context, frame Frame) ([]Detection, error) {
	if f.detectObjects != nil {
		return f.detectObjects(ctx, frame)
	}
	return nil, nil
}

func (f *fakeBackend) DetectFaces(ctx context.Context, frame Frame) ([]Detection, error) {
	if f.detectFaces != nil {
		return f.detectFaces(ctx, frame)
	}
	return nil, nil
}

func (f *fakeBackend) SaveScreenshot(ctx context.Context, frame Frame, destPath string) error {
	f.screenshotCalls++
	if f.saveScreenshot != nil {
		return f.saveScreenshot(ctx, frame, destPath)
	}
	return nil
}
