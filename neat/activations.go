package neat

import (
	"fmt"
	"math"
	"sync"
)

// ActivationType is a node's transfer function.
type ActivationType func(z float64) float64

var (
	activationMu sync.RWMutex

	// ActivationFunctions maps config names to transfer functions. Use
	// RegisterActivation to add custom ones.
	ActivationFunctions = map[string]ActivationType{
		"sigmoid":  Sigmoid,
		"tanh":     Tanh,
		"sin":      Sine,
		"sine":     Sine,
		"cos":      Cosine,
		"cosine":   Cosine,
		"gauss":    Gaussian,
		"gaussian": Gaussian,
		"relu":     ReLU,
		"elu":      ELU,
		"lelu":     LeakyReLU,
		"selu":     SELU,
		"softplus": Softplus,
		"identity": Identity,
		"clamped":  Clamped,
		"inv":      Inv,
		"log":      Log,
		"exp":      Exp,
		"abs":      Absolute,
		"absolute": Absolute,
		"hat":      Hat,
		"square":   Square,
		"cube":     Cube,
	}
)

// RegisterActivation adds or replaces a named activation function.
func RegisterActivation(name string, fn ActivationType) {
	activationMu.Lock()
	defer activationMu.Unlock()
	ActivationFunctions[name] = fn
}

// GetActivation looks an activation function up by name.
func GetActivation(name string) (ActivationType, error) {
	activationMu.RLock()
	defer activationMu.RUnlock()
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// The scale factors and clamps below match neat-python so that networks
// behave the same as under the reference implementation.

func Sigmoid(z float64) float64 {
	z = clamp(5.0*z, -60, 60)
	return 1.0 / (1.0 + math.Exp(-z))
}

func Tanh(z float64) float64 {
	return math.Tanh(clamp(2.5*z, -60, 60))
}

func Sine(z float64) float64 {
	return math.Sin(clamp(5.0*z, -60, 60))
}

func Cosine(z float64) float64 {
	return math.Cos(clamp(5.0*z, -60, 60))
}

func Gaussian(z float64) float64 {
	z = clamp(z, -3.4, 3.4)
	return math.Exp(-5.0 * z * z)
}

func ReLU(z float64) float64 {
	return math.Max(0, z)
}

func ELU(z float64) float64 {
	if z > 0 {
		return z
	}
	return math.Exp(z) - 1
}

func LeakyReLU(z float64) float64 {
	if z > 0 {
		return z
	}
	return 0.005 * z
}

func SELU(z float64) float64 {
	const lam, alpha = 1.0507009873554804934193349852946, 1.6732632423543772848170429916717
	if z > 0 {
		return lam * z
	}
	return lam * alpha * (math.Exp(z) - 1)
}

func Softplus(z float64) float64 {
	z = clamp(5.0*z, -60, 60)
	return 0.2 * math.Log(1+math.Exp(z))
}

func Identity(z float64) float64 {
	return z
}

func Clamped(z float64) float64 {
	return clamp(z, -1, 1)
}

// Inv returns 1/z, or 0 where that is undefined.
func Inv(z float64) float64 {
	if z == 0 {
		return 0
	}
	return 1.0 / z
}

func Log(z float64) float64 {
	return math.Log(math.Max(1e-7, z))
}

func Exp(z float64) float64 {
	return math.Exp(clamp(z, -60, 60))
}

func Absolute(z float64) float64 {
	return math.Abs(z)
}

func Hat(z float64) float64 {
	return math.Max(0, 1-math.Abs(z))
}

func Square(z float64) float64 {
	return z * z
}

func Cube(z float64) float64 {
	return z * z * z
}
