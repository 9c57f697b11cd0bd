package constant

const (
	ReadBatchSize          = 1024
	ParquetDataFileSuffix  = ".parquet"
	CSVDataFileSuffix      = ".csv"
	JSONDataFileSuffix     = ".json"
	JSONLinesFileSuffix    = ".jsonl"
	EndpointOverride       = "endpoint_override"
	DefaultOpenConcurrency = 8
	CSVHeaderPeekSize      = 64 * 1024
	ParquetMagic           = "PAR1"
)

// Data source format names accepted by DataFrameReader.Format.
const (
	FormatSelectParquet = "minioSelectParquet"
	FormatSelectCSV     = "minioSelectCSV"
	FormatSelectJSON    = "minioSelectJSON"
)

// URI schemes understood by fs.BuildFileSystem.
const (
	SchemeCOS    = "cos"
	SchemeS3     = "s3"
	SchemeS3A    = "s3a"
	SchemeFile   = "file"
	SchemeMemory = "mem"
	SchemeHTTP   = "http"
	SchemeHTTPS  = "https"
)

// Reader option keys.
const (
	OptionPushdown    = "pushdown"
	OptionHeader      = "header"
	OptionDelimiter   = "delimiter"
	OptionCompression = "compression"
)

// S3Object alias used in generated Select statements.
const SelectTableAlias = "s"
