package analyzer

// --- 快照分析的数据结构 (JSON) ---

// Severity 表示泄漏候选的紧急程度。
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank 返回用于排序的数值，越大越紧急。
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Category 区分泄漏候选的来源。
type Category string

const (
	CategoryCountGrowth       Category = "count-growth"
	CategoryDetachedReference Category = "detached-reference"
)

// ExtractedObject 是从快照节点解码出的单个对象。
type ExtractedObject struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	ID     int    `json:"id"`               // 节点序号 (0 起)
	NodeID int64  `json:"nodeId,omitempty"` // 快照自身的 id 字段 (若存在)
	Count  int64  `json:"count,omitempty"`  // 该节点代表的对象数 (仅带 count 字段的快照)
}

// Key 返回用于频率统计的 "type:name" 键。
func (o ExtractedObject) Key() string {
	return o.Type + ":" + o.Name
}

// Weight 返回该记录代表的对象数；没有 count 字段时为 1。
func (o ExtractedObject) Weight() int64 {
	if o.Count > 0 {
		return o.Count
	}
	return 1
}

// LeakCandidate 代表一个疑似泄漏的类型或对象。
type LeakCandidate struct {
	Category        Category `json:"type"`
	ClassName       string   `json:"className"`
	Size            int64    `json:"size"`                    // 估算大小 (bytes)
	RetainedSize    int64    `json:"retainedSize"`            // 估算保留大小 (近似值)
	Count           int64    `json:"count"`                   // 当前快照中的数量
	Increase        int64    `json:"increase,omitempty"`      // 相对基线的数量增长
	IncreasePercent float64  `json:"increasePercent"`         // 数量增长百分比
	DetachedCount   int64    `json:"detachedCount,omitempty"` // 仅 detached-reference
	Severity        Severity `json:"severity"`
	Description     string   `json:"description"`
	ObjectID        *int     `json:"objectId,omitempty"` // 具体对象的节点序号 (仅 detached-reference)
}

// TraceHop 是保留路径中的一跳。
type TraceHop struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ClassName string `json:"className"`
	ID        int64  `json:"id"`
}

// RetentionTrace 是从根到可疑对象的近似路径。
type RetentionTrace struct {
	ClassName       string     `json:"className"`
	Severity        Severity   `json:"severity"`
	Path            []TraceHop `json:"path"`
	LeakProbability float64    `json:"leakProbability"`
	Approximate     bool       `json:"approximate"` // true 表示合成路径而非图搜索结果
}

// Summary 汇总当前快照与候选列表。
type Summary struct {
	TotalObjects      int      `json:"totalObjects"`
	TotalSize         int64    `json:"totalSize"`
	CandidateCount    int      `json:"candidateCount"`
	CriticalCount     int      `json:"criticalCount"`
	HighCount         int      `json:"highCount"`
	MediumCount       int      `json:"mediumCount"`
	LowCount          int      `json:"lowCount"`
	HighSeverityCount int      `json:"highSeverityCount"` // high + critical
	DetachedCount     int      `json:"detachedCount"`
	Recommendations   []string `json:"recommendations"`
}

// Analysis 是一次基线/当前快照比较的完整结果。
type Analysis struct {
	BaselineSource   string           `json:"baselineSource"`
	CurrentSource    string           `json:"currentSource"`
	BaselineObjects  int              `json:"baselineObjects"`
	CurrentObjects   int              `json:"currentObjects"`
	BaselineSize     int64            `json:"baselineSize"`
	CurrentSize      int64            `json:"currentSize"`
	GrowthBytes      int64            `json:"growthBytes"`
	GrowthPercentage float64          `json:"growthPercentage"`
	Candidates       []LeakCandidate  `json:"leakCandidates"`
	Traces           []RetentionTrace `json:"retentionTraces"`
	Summary          Summary          `json:"summary"`
}

// ExportMetadata 标识生成导出文件的工具。
type ExportMetadata struct {
	Version string `json:"version"`
	Tool    string `json:"tool"`
	Format  string `json:"format"`
}

// ExportDocument 是 ExportAnalysis 写出的文档。
type ExportDocument struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"` // ISO-8601
	Analysis  *Analysis      `json:"analysis"`
	Metadata  ExportMetadata `json:"metadata"`
}
