package registry

func init() {
	for _, group := range [][]*Schema{defaultOps, mlOps, trainingOps} {
		for _, s := range group {
			Register(s)
		}
	}
}

func op(name string, since int64, minIn, maxIn, minOut, maxOut int, rule Rule, required ...string) *Schema {
	return &Schema{
		OpType:       name,
		SinceVersion: since,
		MinInputs:    minIn,
		MaxInputs:    maxIn,
		MinOutputs:   minOut,
		MaxOutputs:   maxOut,
		Required:     required,
		Rule:         rule,
	}
}

func inDomain(domain string, schemas ...*Schema) []*Schema {
	for _, s := range schemas {
		s.Domain = domain
	}
	return schemas
}

func unary(name string, since int64) *Schema { return op(name, since, 1, 1, 1, 1, RuleUnary) }

func binary(name string, since int64) *Schema { return op(name, since, 2, 2, 1, 1, RuleElementwise) }

func compare(name string, since int64) *Schema { return op(name, since, 2, 2, 1, 1, RuleCompare) }

// reduce registers the attribute-axes form and the input-axes form that replaced it.
func reduce(name string, inputAxesSince int64) []*Schema {
	return []*Schema{
		op(name, 1, 1, 1, 1, 1, RuleKeepType),
		op(name, inputAxesSince, 1, 2, 1, 1, RuleKeepType),
	}
}

// defaultOps are the ai.onnx operators. Arity is per version where it changed.
var defaultOps = concat(
	[]*Schema{
		// Element-wise math.
		unary("Abs", 1), unary("Acos", 7), unary("Acosh", 9), unary("Asin", 7),
		unary("Asinh", 9), unary("Atan", 7), unary("Atanh", 9), unary("Ceil", 1),
		unary("Cos", 7), unary("Cosh", 9), unary("Erf", 9), unary("Exp", 1),
		unary("Floor", 1), unary("Log", 1), unary("Neg", 1), unary("Reciprocal", 1),
		unary("Round", 11), unary("Sign", 9), unary("Sin", 7), unary("Sinh", 9),
		unary("Sqrt", 1), unary("Tan", 7), unary("Tanh", 1), unary("Not", 1),
		unary("BitwiseNot", 18), unary("Identity", 1), unary("Det", 11),
		op("IsNaN", 9, 1, 1, 1, 1, RuleNone),
		op("IsInf", 10, 1, 1, 1, 1, RuleNone),

		binary("Add", 1), binary("Sub", 1), binary("Mul", 1), binary("Div", 1),
		binary("Mod", 10), binary("BitShift", 11), binary("BitwiseAnd", 18),
		binary("BitwiseOr", 18), binary("BitwiseXor", 18), binary("And", 1),
		binary("Or", 1), binary("Xor", 1), binary("PRelu", 1),
		op("Pow", 1, 2, 2, 1, 1, RuleKeepType),

		compare("Equal", 1), compare("Greater", 1), compare("Less", 1),
		compare("GreaterOrEqual", 12), compare("LessOrEqual", 12),

		op("Sum", 1, 1, Unbounded, 1, 1, RuleElementwise),
		op("Max", 1, 1, Unbounded, 1, 1, RuleElementwise),
		op("Min", 1, 1, Unbounded, 1, 1, RuleElementwise),
		op("Mean", 1, 1, Unbounded, 1, 1, RuleElementwise),
		op("Where", 9, 3, 3, 1, 1, RuleNone),
		op("Clip", 1, 1, 1, 1, 1, RuleUnary),
		op("Clip", 11, 1, 3, 1, 1, RuleUnary),
		op("Shrink", 9, 1, 1, 1, 1, RuleUnary),
		op("CumSum", 11, 2, 2, 1, 1, RuleKeepType),
		op("Einsum", 12, 1, Unbounded, 1, 1, RuleSameType, "equation"),

		// Activations.
		unary("Relu", 1), unary("Sigmoid", 1), unary("Softplus", 1), unary("Softsign", 1),
		unary("Elu", 1), unary("Selu", 1), unary("LeakyRelu", 1), unary("HardSigmoid", 1),
		unary("HardSwish", 14), unary("ThresholdedRelu", 10), unary("Celu", 12),
		unary("Mish", 18), unary("Gelu", 20), unary("Softmax", 1), unary("LogSoftmax", 1),
		unary("Hardmax", 1),

		// Linear algebra and convolution.
		op("MatMul", 1, 2, 2, 1, 1, RuleMatMul),
		op("MatMulInteger", 10, 2, 4, 1, 1, RuleNone),
		op("QLinearMatMul", 10, 8, 8, 1, 1, RuleNone),
		op("Gemm", 1, 3, 3, 1, 1, RuleGemm),
		op("Gemm", 11, 2, 3, 1, 1, RuleGemm),
		op("Conv", 1, 2, 3, 1, 1, RuleConv),
		op("ConvTranspose", 1, 2, 3, 1, 1, RuleKeepType),
		op("ConvInteger", 10, 2, 4, 1, 1, RuleNone),
		op("QLinearConv", 10, 8, 9, 1, 1, RuleNone),
		op("Col2Im", 18, 3, 3, 1, 1, RuleKeepType),
		op("GridSample", 16, 2, 2, 1, 1, RuleKeepType),

		// Pooling.
		op("MaxPool", 1, 1, 1, 1, 2, RuleKeepType, "kernel_shape"),
		op("AveragePool", 1, 1, 1, 1, 1, RuleKeepType, "kernel_shape"),
		op("LpPool", 1, 1, 1, 1, 1, RuleKeepType, "kernel_shape"),
		op("GlobalAveragePool", 1, 1, 1, 1, 1, RuleKeepType),
		op("GlobalMaxPool", 1, 1, 1, 1, 1, RuleKeepType),
		op("GlobalLpPool", 2, 1, 1, 1, 1, RuleKeepType),
		op("MaxRoiPool", 1, 2, 2, 1, 1, RuleKeepType, "pooled_shape"),
		op("RoiAlign", 10, 3, 3, 1, 1, RuleKeepType),
		op("MaxUnpool", 9, 2, 3, 1, 1, RuleKeepType, "kernel_shape"),

		// Normalization.
		op("BatchNormalization", 1, 5, 5, 1, 5, RuleKeepType),
		op("InstanceNormalization", 1, 3, 3, 1, 1, RuleUnary),
		op("LayerNormalization", 17, 2, 3, 1, 3, RuleKeepType),
		op("GroupNormalization", 18, 3, 3, 1, 1, RuleUnary, "num_groups"),
		op("RMSNormalization", 23, 2, 2, 1, 1, RuleUnary),
		op("LRN", 1, 1, 1, 1, 1, RuleUnary, "size"),
		op("LpNormalization", 1, 1, 1, 1, 1, RuleUnary),
		op("MeanVarianceNormalization", 9, 1, 1, 1, 1, RuleUnary),
		op("Dropout", 1, 1, 1, 1, 2, RuleKeepType),
		op("Dropout", 12, 1, 3, 1, 2, RuleKeepType),

		// Shape manipulation.
		op("Reshape", 1, 1, 1, 1, 1, RuleKeepType, "shape"),
		op("Reshape", 5, 2, 2, 1, 1, RuleKeepType),
		op("Flatten", 1, 1, 1, 1, 1, RuleKeepType),
		op("Transpose", 1, 1, 1, 1, 1, RuleKeepType),
		op("Squeeze", 1, 1, 1, 1, 1, RuleKeepType),
		op("Squeeze", 13, 1, 2, 1, 1, RuleKeepType),
		op("Unsqueeze", 1, 1, 1, 1, 1, RuleKeepType, "axes"),
		op("Unsqueeze", 13, 2, 2, 1, 1, RuleKeepType),
		op("Expand", 8, 2, 2, 1, 1, RuleKeepType),
		op("Tile", 1, 3, 3, 1, 1, RuleKeepType),
		op("Tile", 6, 2, 2, 1, 1, RuleKeepType),
		op("Slice", 1, 1, 1, 1, 1, RuleKeepType, "starts", "ends"),
		op("Slice", 10, 3, 5, 1, 1, RuleKeepType),
		op("Split", 1, 1, 2, 1, Unbounded, RuleKeepType),
		op("Pad", 1, 1, 1, 1, 1, RuleKeepType, "pads"),
		op("Pad", 11, 2, 3, 1, 1, RuleKeepType),
		op("Pad", 18, 2, 4, 1, 1, RuleKeepType),
		op("Concat", 1, 1, Unbounded, 1, 1, RuleSameType),
		op("Concat", 4, 1, Unbounded, 1, 1, RuleSameType, "axis"),
		op("DepthToSpace", 1, 1, 1, 1, 1, RuleKeepType, "blocksize"),
		op("SpaceToDepth", 1, 1, 1, 1, 1, RuleKeepType, "blocksize"),
		op("Trilu", 14, 1, 2, 1, 1, RuleUnary),
		op("ReverseSequence", 10, 2, 2, 1, 1, RuleUnary),
		op("Compress", 9, 2, 2, 1, 1, RuleKeepType),
		op("Upsample", 7, 1, 1, 1, 1, RuleKeepType, "scales"),
		op("Upsample", 9, 2, 2, 1, 1, RuleKeepType),
		op("Resize", 10, 2, 2, 1, 1, RuleKeepType),
		op("Resize", 11, 1, 4, 1, 1, RuleKeepType),

		// Indexing.
		op("Gather", 1, 2, 2, 1, 1, RuleKeepType),
		op("GatherElements", 11, 2, 2, 1, 1, RuleKeepType),
		op("GatherND", 11, 2, 2, 1, 1, RuleKeepType),
		op("Scatter", 9, 3, 3, 1, 1, RuleKeepType),
		op("ScatterElements", 11, 3, 3, 1, 1, RuleKeepType),
		op("ScatterND", 11, 3, 3, 1, 1, RuleKeepType),
		op("OneHot", 9, 3, 3, 1, 1, RuleNone),
		op("TopK", 1, 1, 1, 2, 2, RuleKeepType, "k"),
		op("TopK", 10, 2, 2, 2, 2, RuleKeepType),
		op("ArgMax", 1, 1, 1, 1, 1, RuleInt64),
		op("ArgMin", 1, 1, 1, 1, 1, RuleInt64),
		op("NonZero", 9, 1, 1, 1, 1, RuleInt64),
		op("NonMaxSuppression", 10, 2, 5, 1, 1, RuleInt64),
		op("Unique", 11, 1, 1, 1, 4, RuleKeepType),

		// Tensor creation and conversion.
		op("Shape", 1, 1, 1, 1, 1, RuleInt64),
		op("Size", 1, 1, 1, 1, 1, RuleInt64),
		op("Constant", 1, 0, 0, 1, 1, RuleNone),
		op("ConstantOfShape", 9, 1, 1, 1, 1, RuleNone),
		op("Cast", 1, 1, 1, 1, 1, RuleCast, "to"),
		op("CastLike", 15, 2, 2, 1, 1, RuleNone),
		op("Range", 11, 3, 3, 1, 1, RuleSameType),
		op("EyeLike", 9, 1, 1, 1, 1, RuleNone),
		op("RandomNormal", 1, 0, 0, 1, 1, RuleNone, "shape"),
		op("RandomUniform", 1, 0, 0, 1, 1, RuleNone, "shape"),
		op("RandomNormalLike", 1, 1, 1, 1, 1, RuleNone),
		op("RandomUniformLike", 1, 1, 1, 1, 1, RuleNone),
		op("Multinomial", 7, 1, 1, 1, 1, RuleNone),
		op("Bernoulli", 15, 1, 1, 1, 1, RuleNone),

		// Quantization.
		op("QuantizeLinear", 10, 2, 3, 1, 1, RuleNone),
		op("DequantizeLinear", 10, 2, 3, 1, 1, RuleNone),
		op("DynamicQuantizeLinear", 11, 1, 1, 3, 3, RuleNone),

		// Recurrent.
		op("RNN", 1, 3, 6, 0, 2, RuleNone),
		op("GRU", 1, 3, 6, 0, 2, RuleNone),
		op("LSTM", 1, 3, 8, 0, 3, RuleNone),

		// Control flow.
		op("If", 1, 1, 1, 1, Unbounded, RuleNone, "then_branch", "else_branch"),
		op("Loop", 1, 2, Unbounded, 1, Unbounded, RuleNone, "body"),
		op("Scan", 8, 1, Unbounded, 1, Unbounded, RuleNone, "body", "num_scan_inputs"),

		// Sequences and optionals.
		op("SequenceEmpty", 11, 0, 0, 1, 1, RuleNone),
		op("SequenceConstruct", 11, 1, Unbounded, 1, 1, RuleNone),
		op("SequenceAt", 11, 2, 2, 1, 1, RuleNone),
		op("SequenceInsert", 11, 2, 3, 1, 1, RuleNone),
		op("SequenceErase", 11, 1, 2, 1, 1, RuleNone),
		op("SequenceLength", 11, 1, 1, 1, 1, RuleNone),
		op("SplitToSequence", 11, 1, 2, 1, 1, RuleNone),
		op("ConcatFromSequence", 11, 1, 1, 1, 1, RuleNone, "axis"),
		op("Optional", 15, 0, 1, 1, 1, RuleNone),
		op("OptionalHasElement", 15, 0, 1, 1, 1, RuleNone),
		op("OptionalGetElement", 15, 1, 1, 1, 1, RuleNone),
		op("SequenceMap", 17, 1, Unbounded, 1, Unbounded, RuleNone, "body"),

		// Signal processing.
		op("DFT", 17, 1, 2, 1, 1, RuleKeepType),
		op("DFT", 20, 1, 3, 1, 1, RuleKeepType),
		op("STFT", 17, 2, 4, 1, 1, RuleKeepType),
		op("HannWindow", 17, 1, 1, 1, 1, RuleNone),
		op("HammingWindow", 17, 1, 1, 1, 1, RuleNone),
		op("BlackmanWindow", 17, 1, 1, 1, 1, RuleNone),
		op("MelWeightMatrix", 17, 5, 5, 1, 1, RuleNone),

		// Losses.
		op("NegativeLogLikelihoodLoss", 12, 2, 3, 1, 1, RuleKeepType),
		op("SoftmaxCrossEntropyLoss", 12, 2, 3, 1, 2, RuleKeepType),

		// Attention and transformer blocks.
		op("Attention", 23, 3, 6, 1, 4, RuleKeepType),
		op("RotaryEmbedding", 23, 3, 4, 1, 1, RuleUnary),
		op("TensorScatter", 24, 2, 3, 1, 1, RuleUnary),
		unary("Swish", 24),

		// Images.
		op("CenterCropPad", 18, 2, 2, 1, 1, RuleKeepType),
		op("AffineGrid", 20, 2, 2, 1, 1, RuleKeepType),
		op("DeformConv", 19, 3, 5, 1, 1, RuleKeepType),
		op("ImageDecoder", 20, 1, 1, 1, 1, RuleNone),

		// Text.
		op("StringNormalizer", 10, 1, 1, 1, 1, RuleUnary),
		op("StringConcat", 20, 2, 2, 1, 1, RuleElementwise),
		op("StringSplit", 20, 1, 1, 2, 2, RuleNone),
		op("RegexFullMatch", 20, 1, 1, 1, 1, RuleNone),
		op("TfIdfVectorizer", 9, 1, 1, 1, 1, RuleNone,
			"max_gram_length", "max_skip_count", "min_gram_length", "mode", "ngram_counts", "ngram_indexes"),
	},
	reduce("ReduceSum", 13),
	reduce("ReduceMean", 18),
	reduce("ReduceMax", 18),
	reduce("ReduceMin", 18),
	reduce("ReduceProd", 18),
	reduce("ReduceL1", 18),
	reduce("ReduceL2", 18),
	reduce("ReduceLogSum", 18),
	reduce("ReduceLogSumExp", 18),
	reduce("ReduceSumSquare", 18),
)

// mlOps are the ai.onnx.ml operators.
var mlOps = inDomain("ai.onnx.ml",
	op("ArrayFeatureExtractor", 1, 2, 2, 1, 1, RuleKeepType),
	op("Binarizer", 1, 1, 1, 1, 1, RuleUnary),
	op("CastMap", 1, 1, 1, 1, 1, RuleNone),
	op("CategoryMapper", 1, 1, 1, 1, 1, RuleNone),
	op("DictVectorizer", 1, 1, 1, 1, 1, RuleNone),
	op("FeatureVectorizer", 1, 1, Unbounded, 1, 1, RuleNone),
	op("Imputer", 1, 1, 1, 1, 1, RuleUnary),
	op("LabelEncoder", 1, 1, 1, 1, 1, RuleNone),
	op("LinearClassifier", 1, 1, 1, 2, 2, RuleNone, "coefficients"),
	op("LinearRegressor", 1, 1, 1, 1, 1, RuleNone),
	op("Normalizer", 1, 1, 1, 1, 1, RuleNone),
	op("OneHotEncoder", 1, 1, 1, 1, 1, RuleNone),
	op("SVMClassifier", 1, 1, 1, 2, 2, RuleNone),
	op("SVMRegressor", 1, 1, 1, 1, 1, RuleNone),
	op("Scaler", 1, 1, 1, 1, 1, RuleNone),
	op("TreeEnsembleClassifier", 1, 1, 1, 2, 2, RuleNone),
	op("TreeEnsembleRegressor", 1, 1, 1, 1, 1, RuleNone),
	op("TreeEnsemble", 5, 1, 1, 1, 1, RuleKeepType),
	op("ZipMap", 1, 1, 1, 1, 1, RuleNone),
)

// trainingOps are the ai.onnx.preview.training operators.
var trainingOps = inDomain("ai.onnx.preview.training",
	op("Adagrad", 1, 3, Unbounded, 1, Unbounded, RuleNone),
	op("Adam", 1, 3, Unbounded, 1, Unbounded, RuleNone),
	op("Momentum", 1, 3, Unbounded, 1, Unbounded, RuleNone, "alpha", "beta", "mode", "norm_coefficient"),
	op("Gradient", 1, 1, Unbounded, 1, Unbounded, RuleNone, "xs", "y"),
)

func concat(groups ...[]*Schema) []*Schema {
	var all []*Schema
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
