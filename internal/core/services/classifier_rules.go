package services

import "github.com/custodia-labs/deckscore/internal/core/domain"

// categoryKeywords are the trigger phrases counted per category.
// Korean and English phrasings are listed side by side.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryProblem: {
		"문제", "pain", "불편", "한계", "리스크", "왜 필요한", "니즈", "현황",
		"problem", "challenge", "struggle", "inefficient", "status quo",
	},
	domain.CategorySolution: {
		"해결", "솔루션", "solution", "as-is", "to-be", "개선", "제안", "approach",
		"solve", "we help", "how it works",
	},
	domain.CategoryProduct: {
		"제품", "프로세스", "아키텍처", "ui", "ux", "화면", "인터페이스", "스크린샷", "데모",
		"flow", "작동 방식", "사용 흐름", "사용자 여정", "시연",
		"product", "feature", "architecture", "screenshot", "demo", "user journey",
	},
	domain.CategoryMarket: {
		"tam", "sam", "som", "시장", "시장규모", "cagr", "성장률", "수요", "고객수",
		"market", "market size", "growth rate", "demand",
	},
	domain.CategoryBusinessModel: {
		"비즈니스 모델", "bm", "수익", "수수료", "구독", "pricing", "ltv", "arpu", "arr", "unit economics",
		"business model", "revenue model", "subscription", "commission",
	},
	domain.CategoryTraction: {
		"mou", "loi", "poc", "매출", "실매출", "mrr", "arr", "활성 사용자", "mau", "dau", "런칭", "베타",
		"파일럿", "계약", "재계약", "선정", "인증", "특허 등록", "고객사", "지표",
		"traction", "revenue", "pilot", "beta", "launch", "active users", "contract", "patent",
	},
	domain.CategoryCompetition: {
		"경쟁", "경쟁사", "차별", "비교", "포지셔닝", "moat",
		"competitor", "competition", "differentiation", "comparison", "positioning",
	},
	domain.CategoryTeam: {
		"팀", "ceo", "cto", "coo", "cso", "cmo", "founder", "자문", "경력", "학력",
		"team", "co-founder", "advisor", "experience",
	},
	domain.CategoryFinance: {
		"재무", "손익", "bep", "burn", "runway", "투자", "자금", "cashflow", "ipo",
		"financial", "funding", "investment", "break-even", "cash flow", "use of funds",
	},
	domain.CategoryAsk: {
		"로드맵", "roadmap", "계획", "milestone", "마일스톤", "phase", "일정", "분기",
		"q1", "q2", "q3", "q4", "2026", "2027", "2028", "next step", "요청", "문의",
		"plan", "timeline", "our ask",
	},
}

// Structural signals that adjust keyword scores.
var (
	marketCore = []string{
		"tam", "sam", "som", "시장규모", "cagr", "성장률", "시장 점유", "시장 성장",
		"market size", "market share", "growth rate",
	}
	planCore = []string{
		"로드맵", "roadmap", "마일스톤", "milestone", "q1", "q2", "q3", "q4",
		"2026", "2027", "2028", "일정", "분기", "timeline",
	}
	tractionCore = []string{
		"mou", "loi", "poc", "계약", "선정", "인증", "실매출", "mrr", "arr", "재계약", "파일럿", "베타",
		"pilot", "beta", "contract", "paying customers",
	}
	productCore = []string{
		"ui", "ux", "화면", "스크린샷", "데모", "프로세스", "flow", "워크플로우", "아키텍처",
		"screenshot", "demo", "workflow", "architecture",
	}
	solutionCore = []string{
		"해결", "솔루션", "개선", "제안", "대안", "효과", "as-is", "to-be",
		"solution", "solve", "we help",
	}
	teamCore = []string{
		"ceo", "cto", "coo", "cmo", "founder", "팀", "멤버", "프로필", "경력", "학력",
		"team", "co-founder",
	}
	coverCore = []string{
		"thank", "thanks", "q&a", "감사", "문의", "logo", "chapter", "section", "part",
		"overview", "agenda", "contents", "contact",
	}
	deckTitleWords = []string{"ir", "pitch", "발표", "데크", "deck"}
	problemWords   = []string{"문제", "pain", "불편", "한계", "차별", "problem"}
)

// categoryPriority breaks ties between equally scored categories.
var categoryPriority = []domain.Category{
	domain.CategoryTraction,
	domain.CategoryFinance,
	domain.CategoryBusinessModel,
	domain.CategoryMarket,
	domain.CategoryTeam,
	domain.CategoryCompetition,
	domain.CategorySolution,
	domain.CategoryProduct,
	domain.CategoryProblem,
	domain.CategoryAsk,
	domain.CategoryCover,
	domain.CategoryOther,
}

// numericHints mark rubric items that ask for figures.
var numericHints = []string{
	"tam", "sam", "som", "시장", "매출", "수익", "가격", "arpu", "ltv", "mau", "dau", "bep",
	"재무", "성장", "추세",
	"market", "revenue", "price", "pricing", "growth", "financial", "trend",
}

// Pitch type inference vocabularies.
var (
	govKeywords = []string{
		"정부", "지원사업", "정책", "지자체", "공공", "과제", "k-startup", "창업패키지",
		"government", "public funding", "grant", "ministry",
	}
	contestKeywords = []string{
		"경진대회", "contest", "해커톤", "수상", "데모데이 외 대회",
		"competition entry", "hackathon", "award",
	}
)
