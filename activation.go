package synadart

import (
	"math"

	. "github.com/stevegt/goadapt"
)

// Each activation function comes with its first derivative, taken over
// the pre-activation weighted sum.

// sigmoid activation function
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// sigmoid derivative
func sigmoidD1(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

// tanh activation function
func tanh(x float64) float64 {
	return math.Tanh(x)
}

// tanh derivative
func tanhD1(x float64) float64 {
	return 1 - math.Pow(math.Tanh(x), 2)
}

// relu activation function
func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// relu derivative
func reluD1(x float64) float64 {
	if x < 0 {
		return 0
	}
	return 1
}

// leaky relu activation function
func lrelu(x float64) float64 {
	if x < 0 {
		return 0.3 * x
	}
	return x
}

// leaky relu derivative
func lreluD1(x float64) float64 {
	if x < 0 {
		return 0.3
	}
	return 1
}

// elu activation function
func elu(x float64) float64 {
	if x < 0 {
		return math.Exp(x) - 1
	}
	return x
}

// elu derivative
func eluD1(x float64) float64 {
	if x < 0 {
		return math.Exp(x)
	}
	return 1
}

const seluLambda = 1.0507009873554805
const seluAlpha = 1.6732632423543772

// selu activation function
func selu(x float64) float64 {
	if x < 0 {
		return seluLambda * seluAlpha * (math.Exp(x) - 1)
	}
	return seluLambda * x
}

// selu derivative
func seluD1(x float64) float64 {
	if x < 0 {
		return seluLambda * seluAlpha * math.Exp(x)
	}
	return seluLambda
}

// softplus activation function
func softplus(x float64) float64 {
	return math.Log(1 + math.Exp(x))
}

// softplus derivative
func softplusD1(x float64) float64 {
	return sigmoid(x)
}

// softsign activation function
func softsign(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// softsign derivative
func softsignD1(x float64) float64 {
	d := 1 + math.Abs(x)
	return 1 / (d * d)
}

// swish activation function
func swish(x float64) float64 {
	return x * sigmoid(x)
}

// swish derivative
func swishD1(x float64) float64 {
	s := sigmoid(x)
	return s + x*s*(1-s)
}

// gaussian activation function
func gaussian(x float64) float64 {
	return math.Exp(-(x * x))
}

// gaussian derivative
func gaussianD1(x float64) float64 {
	return -2 * x * math.Exp(-(x * x))
}

// linear activation function
func linear(x float64) float64 {
	return x
}

// linear derivative
func linearD1(x float64) float64 {
	return 1
}

// activationFuncs returns the activation function and its derivative
// for the given name.
func activationFuncs(name string) (activation, activationD1 func(float64) float64) {
	switch name {
	case "sigmoid":
		activation = sigmoid
		activationD1 = sigmoidD1
	case "tanh":
		activation = tanh
		activationD1 = tanhD1
	case "relu":
		activation = relu
		activationD1 = reluD1
	case "lrelu":
		activation = lrelu
		activationD1 = lreluD1
	case "elu":
		activation = elu
		activationD1 = eluD1
	case "selu":
		activation = selu
		activationD1 = seluD1
	case "softplus":
		activation = softplus
		activationD1 = softplusD1
	case "softsign":
		activation = softsign
		activationD1 = softsignD1
	case "swish":
		activation = swish
		activationD1 = swishD1
	case "gaussian":
		activation = gaussian
		activationD1 = gaussianD1
	case "linear":
		activation = linear
		activationD1 = linearD1
	default:
		Assert(false, "unknown activation function: %s", name)
	}
	return
}
