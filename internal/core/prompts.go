package core

// PRDAnalysisPrompt instructs the model to extract a structured feature list
// from free-form PRD text as a JSON array.
const PRDAnalysisPrompt = `당신은 PRD(제품 요구사항 문서)를 분석하고 구조화된 형식으로 기능을 추출하는 AI 어시스턴트입니다.
사용자가 제공하는 PRD 텍스트에서 다음 정보를 추출해주세요:

1. 각 기능에 대해 다음 정보를 JSON 형식으로 추출하세요:
   - 기능 이름
   - 기능 설명
   - API Endpoint (RESTful 형식으로)
   - 요청 파라미터 (있는 경우)
   - 우선순위 (높음, 중간, 낮음)
   - 관련 페이지 (있는 경우)

2. 응답은 다음 형식의 JSON 배열로 제공해주세요:
[
  {
    "기능_이름": "...",
    "기능_설명": "...",
    "API_Endpoint": "...",
    "요청_파라미터": { ... },
    "우선순위": "...",
    "관련_페이지": "..."
  },
  ...
]

3. 기능이 명확하지 않은 경우, 합리적인 추측을 해주세요.
4. 응답은 JSON 형식만 포함해야 합니다. 다른 설명이나 텍스트는 포함하지 마세요.`

// TaskTablePrompt expands a feature list into per-feature development tasks.
const TaskTablePrompt = `당신은 소프트웨어 개발 프로젝트 관리자입니다.
제공된 기능 목록을 바탕으로 개발 태스크 테이블을 생성해주세요.

각 기능에 대해 다음 정보를 포함한 태스크 목록을 JSON 형식으로 생성해주세요:
- task: 작업 내용 (구체적인 개발 작업)
- feature_id: 관련된 기능 ID
- estimated_hours: 예상 소요 시간 (시간 단위)
- status: 상태 (대기, 진행 중, 완료 중 하나)

응답은 다음 형식의 JSON 배열로 제공해주세요:
[
  {
    "task": "...",
    "feature_id": "...",
    "estimated_hours": 숫자,
    "status": "대기"
  },
  ...
]

각 기능에 대해 최소 2개 이상의 태스크를 생성해주세요.
응답은 JSON 형식만 포함해야 합니다. 다른 설명이나 텍스트는 포함하지 마세요.`

// FunctionMapPrompt produces a markdown map of front-end/back-end functions
// per feature.
const FunctionMapPrompt = `당신은 소프트웨어 아키텍트입니다.
제공된 기능 목록을 바탕으로 필요한 함수들의 맵을 생성해주세요.

각 기능에 대해 필요한 함수들을 다음 정보를 포함하여 마크다운 형식으로 생성해주세요:
- 함수명
- 파라미터
- 반환값
- 간단한 설명

다음과 같은 형식으로 응답해주세요:

## 기능: [기능명]

### 프론트엔드 함수

` + "```typescript" + `
// 함수 설명
function 함수명(파라미터1: 타입, 파라미터2: 타입): 반환타입 {
  // 구현 설명
}
` + "```" + `

### 백엔드 함수

` + "```typescript" + `
// 함수 설명
function 함수명(파라미터1: 타입, 파라미터2: 타입): 반환타입 {
  // 구현 설명
}
` + "```" + `

각 기능에 대해 프론트엔드와 백엔드 함수를 모두 포함해주세요.`

// DevTreePrompt produces a markdown tech-stack, file-structure, and roadmap doc.
const DevTreePrompt = `당신은 소프트웨어 아키텍트입니다.
제공된 기능 목록을 바탕으로 개발 기술 스택과 파일 구조를 포함한 개발 트리를 생성해주세요.

다음 정보를 포함한 마크다운 형식으로 응답해주세요:

## 기술 스택

### 프론트엔드
- 필요한 프레임워크와 라이브러리

### 백엔드
- 필요한 서비스와 데이터베이스

## 파일 구조

` + "```" + `
(디렉토리 트리)
` + "```" + `

## 개발 로드맵

1. 초기 설정 및 인증 구현
2. 기본 UI 컴포넌트 개발
3. API 연동 구현
4. 기능별 개발 순서

상세하고 실용적인 개발 트리를 제공해주세요.`

// SystemConfigPrompt produces a markdown system architecture, schema, and
// deployment doc.
const SystemConfigPrompt = `당신은 시스템 아키텍트입니다.
제공된 기능 목록을 바탕으로 전체 시스템 구성도를 생성해주세요.

다음 정보를 포함한 마크다운 형식으로 응답해주세요:

## 시스템 아키텍처

### 컴포넌트 다이어그램
(텍스트로 다이어그램 표현)

### 데이터 흐름
1. 사용자 인증
2. PRD 입력 및 분석
3. 기능 추출 및 태스크 생성
4. 문서 생성
5. 외부 서비스 연동

## 데이터베이스 스키마

### 테이블 구조
- users
- projects
- features
- tasks
- documents
- integrations

## 배포 구성

### 개발 환경
- 로컬 개발 설정

### 프로덕션 환경
- 배포 전략
- 스케일링 고려사항

상세하고 실용적인 시스템 구성을 제공해주세요.`

// ResolvePrompt returns the system prompt for an artifact type.
// Unrecognized types resolve to the PRD-analysis prompt; the web UI has always
// relied on that default and several saved documents depend on it.
func ResolvePrompt(artifactType ArtifactType) string {
	switch artifactType {
	case ArtifactPRDAnalysis:
		return PRDAnalysisPrompt
	case ArtifactTaskTable:
		return TaskTablePrompt
	case ArtifactFunctionMap:
		return FunctionMapPrompt
	case ArtifactDevTree:
		return DevTreePrompt
	case ArtifactSystemConfig:
		return SystemConfigPrompt
	default:
		return PRDAnalysisPrompt
	}
}
