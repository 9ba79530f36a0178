package classifier

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ModelConfig describes an ONNX classifier on disk
type ModelConfig struct {
	Name       string
	ModelPath  string
	LabelsPath string
	ImageSize  int
	Layout     string
	InputName  string
	OutputName string
}

// ONNXClassifier runs a single ONNX model. The session and its tensors are
// allocated once and shared, so Classify calls are serialised.
type ONNXClassifier struct {
	name      string
	labels    []string
	imageSize int
	layout    string

	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// InitRuntime initialises the process-wide ONNX Runtime environment. It must
// be called once before any classifier is loaded.
func InitRuntime(sharedLibraryPath string) error {
	if sharedLibraryPath != "" {
		ort.SetSharedLibraryPath(sharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// DestroyRuntime releases the ONNX Runtime environment
func DestroyRuntime() {
	if err := ort.DestroyEnvironment(); err != nil {
		log.Printf("[Classifier] Failed to destroy ONNX environment: %v", err)
	}
}

// NewONNXClassifier loads the labels and model described by cfg. The model
// output is expected to have shape [1, len(labels)].
func NewONNXClassifier(cfg ModelConfig) (*ONNXClassifier, error) {
	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}

	inputShape := ort.NewShape(InputShape(cfg.ImageSize, cfg.Layout)...)
	outputShape := ort.NewShape(1, int64(len(labels)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create input tensor: %w", cfg.Name, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%s: failed to create output tensor: %w", cfg.Name, err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%s: failed to create ONNX session for %s: %w", cfg.Name, cfg.ModelPath, err)
	}

	log.Printf("[Classifier] Loaded %s model from %s with %d labels", cfg.Name, cfg.ModelPath, len(labels))

	return &ONNXClassifier{
		name:         cfg.Name,
		labels:       labels,
		imageSize:    cfg.ImageSize,
		layout:       cfg.Layout,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (c *ONNXClassifier) Name() string { return c.name }

func (c *ONNXClassifier) Labels() []string { return c.labels }

// Classify preprocesses img and runs the model
func (c *ONNXClassifier) Classify(ctx context.Context, img image.Image) (*Prediction, error) {
	inputData, err := Preprocess(img, c.imageSize, c.layout)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), inputData)

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("%s inference failed: %w", c.name, err)
	}

	return ArgMax(c.outputTensor.GetData(), c.labels)
}

// Close releases the session and tensors
func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
}
