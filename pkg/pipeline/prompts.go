package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ci-pae/engine/pkg/schema"
)

// Prompt construction for the three model-backed stages. All prompts are
// written in Chinese because the operators and the underlying data are
// Chinese; the model answers in kind.

const plannerInstructions = `你是一名扶贫数据分析系统的查询规划专家。你的任务是分析用户的自然语言问题，判断需要查询哪些数据表，并识别与问题相关的扶贫政策。

只返回一个 JSON 对象，不要任何解释或 Markdown 标记，格式如下：
{
  "analysis": "对用户问题的简要分析，说明问题在问什么",
  "tables_needed": ["需要查询的表名列表"],
  "relevant_policies": [
    {"policy_id": "政策编号", "policy_name": "政策名称", "relevance": "与问题的关联说明"}
  ]
}

规则：
① tables_needed 只能包含数据库结构中存在的表名；
② 与政策无关的问题 relevant_policies 返回空数组；
③ analysis 用简洁中文描述，不超过100字。`

const synthesizerInstructions = `你是一名 PostgreSQL 专家，只返回一条可执行的 SELECT 语句，不要任何解释，不要 Markdown 代码块标记。

强制规则：
① 只生成 SELECT 查询，禁止 INSERT、UPDATE、DELETE、DROP 等任何写操作；
② 所有表必须使用别名，指标表通过 county_id 关联 counties 表，按 year 筛选年度；
③ 凡是提到"大于"、"多于"、"超过"、"高于"必须用 > ；凡是提到"小于"、"少于"、"低于"必须用 < ；
④ 涉及时间段对比（如脱贫前后）时使用 CASE WHEN 按年份拆分；
⑤ 查询范围限定在 %s，县名匹配使用 counties 表的 county_name 字段；
⑥ 只生成一条语句，语句末尾不要分号。`

const reporterInstructions = `你是一名数据分析专家，需要基于提供的查询结果，生成简洁易懂的分析报告。
要求：
1. 语言简洁明了，不超过300字
2. 突出关键数据和趋势
3. 使用 Markdown 格式，自然流畅的中文表达
4. 引用访谈数据时注明受访者、调研人员和访谈日期`

// PlannerSystemPrompt embeds the database structure and the policy
// reference so the model can ground table and policy choices.
func PlannerSystemPrompt(sc *schema.Context) string {
	var b strings.Builder
	b.WriteString(plannerInstructions)
	b.WriteString("\n\n数据库结构如下：\n")
	b.WriteString(sc.DDL)
	if ref := sc.PolicyReferenceText(); ref != "" {
		b.WriteString("\n\n政策库如下：\n")
		b.WriteString(ref)
	}
	return b.String()
}

// SynthesizerSystemPrompt embeds the database structure; the plan travels
// in the user prompt.
func SynthesizerSystemPrompt(sc *schema.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, synthesizerInstructions, sc.Province)
	b.WriteString("\n\n数据库结构如下：\n")
	b.WriteString(sc.DDL)
	return b.String()
}

// SynthesizerUserPrompt combines the question with the planner's analysis
// so the SQL stage sees which tables the plan selected.
func SynthesizerUserPrompt(question string, plan *QueryPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "用户问题: %s\n", question)
	if plan != nil {
		if plan.Analysis != "" {
			fmt.Fprintf(&b, "问题分析: %s\n", plan.Analysis)
		}
		if len(plan.TablesNeeded) > 0 {
			fmt.Fprintf(&b, "需要的表: %s\n", strings.Join(plan.TablesNeeded, ", "))
		}
		for _, p := range plan.RelevantPolicies {
			fmt.Fprintf(&b, "相关政策: %s %s（%s）\n", p.PolicyID, p.PolicyName, p.Relevance)
		}
	}
	return b.String()
}

// ReporterSystemPrompt returns the fixed report-generation instructions.
func ReporterSystemPrompt() string { return reporterInstructions }

// ReporterUserPrompt serializes the result rows alongside the original
// question, matching the shape the report prompt expects.
func ReporterUserPrompt(question string, rows []map[string]any) string {
	data, err := json.Marshal(rows)
	if err != nil {
		data = []byte("[]")
	}
	return fmt.Sprintf("用户查询: %s\n查询结果: %s", question, data)
}
