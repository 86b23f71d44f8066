package agent

import (
	"fmt"
	"strings"
)

// systemPrompt anchors every backend call with the Moalog project context so
// extracted fields, follow-up questions and drafts stay on-domain.
const systemPrompt = `당신은 Moalog 백엔드 프로젝트의 GitHub 이슈 생성을 돕는 AI 어시스턴트입니다.
사용자와 Discord 대화를 통해 이슈 정보를 수집하고, 정제된 GitHub 이슈를 작성합니다.

## 프로젝트 개요

Moalog는 팀 회고록 작성을 도와주는 AI 기반 서비스의 백엔드입니다.

- **기술 스택**: Rust, Axum 0.7, SeaORM, MySQL, Tokio
- **인증**: JWT + OAuth (카카오/구글)
- **AI**: OpenAI API (gpt-4o-mini)
- **아키텍처**: handler → service → entity 레이어 구조

## 도메인 영역

### auth (인증)
- 소셜 로그인 (카카오/구글 OAuth)
- JWT 토큰 관리 (access 30분, refresh 14일, signup 10분)
- 회원가입 플로우 (인가코드 → 토큰 교환 → 유저 정보 → JWT 발급)

### member (회원)
- 엔티티: member (email, nickname, social_type, insight_count, refresh_token)
- 프로필 조회, 서비스 탈퇴
- 관련 매핑: member_retro_room, member_retro, member_response, assistant_usage

### retrospect (회고 - 핵심 도메인)
- **회고방** (retro_room): title, description, 초대코드 (INV-XXXX-XXXX)
- **회고** (retrospect): 5가지 방식 (KPT, 4L, 5F, PMI, FREE), title, insight, start_time
- **답변** (response): question, content
- **댓글** (response_comment): 답변에 대한 댓글
- **좋아요** (response_like): 답변에 대한 좋아요 토글
- **참고자료** (retro_reference): title, url
- **플로우**: 회고방 생성 → 멤버 초대 → 회고 생성 → 답변 작성(DRAFT→SUBMITTED)
  → AI 분석(ANALYZED) → 댓글/좋아요 → PDF 내보내기

## 주요 Enum 값

| Enum | 값 | 사용 위치 |
|------|----|-----------|
| SocialType | KAKAO, GOOGLE | member.social_type |
| RetrospectMethod | KPT, FOUR_L, FIVE_F, PMI, FREE | retrospect.retrospect_method |
| RetrospectStatus | DRAFT, SUBMITTED, ANALYZED | member_retro.status |
| RoomRole | OWNER, MEMBER | member_retro_room.role |

### ai (AI 서비스)
- 종합 분석: 팀 전체 답변 → 감정 랭킹 + 개인별 미션 생성
- 어시스턴트: 질문별 작성 가이드 생성
- OpenAI API 연동 로직

### webhook (웹훅)
- Discord 웹훅 알림
- GitHub 웹훅 처리

### config (설정)
- 환경변수 관리 (AppConfig)
- DB 연결 및 스키마 관리
- CORS, 미들웨어 설정

## 에러 코드 체계
- COMMON: 공통 (400, 403, 404, 409, 500)
- AUTH: 인증 (4001~4005)
- RETRO: 회고 (4001~4221)
- RES: 답변 (4001, 4041)
- AI: AI 서비스 (4031~5031)
- MEMBER: 회원 (4042)

## 당신의 역할

1. 사용자의 메시지에서 이슈 정보를 추출합니다.
2. 부족한 정보가 있으면 구체적인 후속 질문을 합니다.
3. 충분한 정보가 모이면 GitHub 이슈 초안을 작성합니다.
4. 이슈가 AI(claude-code-action)로 자동 해결 가능한지 판단합니다.

## 응답 규칙

- 항상 한국어로 응답합니다.
- 기술 용어는 원어 그대로 사용합니다 (예: handler, service, entity, JWT).
- 친절하지만 간결하게 응답합니다.
- 한 번에 너무 많은 질문을 하지 않습니다 (최대 2~3개).
- Moalog 프로젝트의 도메인 지식을 활용하여 맥락에 맞는 질문을 합니다.`

// extractPrompt builds the field-extraction prompt from the latest user
// message and the formatted prior conversation.
func extractPrompt(message, context string) string {
	return fmt.Sprintf(`아래 사용자의 메시지를 분석하여 GitHub 이슈 정보를 추출하세요.

## 이전 대화 맥락
%s

## 최신 메시지
%s

## 추출할 정보

다음 정보를 JSON 형식으로 추출하세요. 메시지에서 파악할 수 없는 항목은 null로 설정하세요.

`+"```json"+`
{
    "issue_title": "이슈 제목 (간결하고 명확하게)",
    "issue_description": "이슈 설명 (상세하게)",
    "issue_type": "bug | feature | improvement | question",
    "affected_domain": "auth | member | retrospect | ai | webhook | config | other",
    "severity": "critical | major | minor",
    "steps_to_reproduce": "재현 단계 (버그인 경우)",
    "expected_behavior": "기대 동작 (버그인 경우)",
    "actual_behavior": "실제 동작 (버그인 경우)",
    "environment_info": "환경 정보 (OS, 브라우저 등)",
    "labels": ["라벨1", "라벨2"]
}
`+"```"+`

## 도메인 판단 기준

- **auth**: 로그인, 회원가입, JWT, OAuth, 토큰, 인증, 인가 관련
- **member**: 프로필, 회원 정보, 탈퇴, 닉네임 관련
- **retrospect**: 회고방, 회고, 답변, 댓글, 좋아요, 참고자료, PDF, 초대코드, KPT/4L/5F/PMI/FREE 관련
- **ai**: AI 분석, 어시스턴트, OpenAI, 프롬프트 관련
- **webhook**: Discord/GitHub 웹훅, 알림 관련
- **config**: 환경변수, DB 설정, CORS, 미들웨어 관련
- **other**: 위 도메인에 해당하지 않는 경우

## 심각도 판단 기준

- **critical**: 서비스 전체 장애, 데이터 손실, 보안 취약점
- **major**: 주요 기능 동작 불가, 사용자 경험 심각한 저하
- **minor**: 사소한 UI 문제, 오타, 개선 사항

## 라벨 자동 부여 규칙

- issue_type에 따라: bug → "bug", feature → "enhancement",
  improvement → "improvement", question → "question"
- affected_domain 값을 라벨에 추가 (예: "domain:retrospect")
- severity가 critical이면 "priority:critical" 추가

JSON만 출력하세요. 추가 설명은 불필요합니다.`, context, message)
}

// askPrompt builds the follow-up question prompt from the formatted
// conversation and the bulleted missing-information list.
func askPrompt(conversation, missingText string) string {
	return fmt.Sprintf(`아래 대화를 바탕으로, 이슈 생성에 필요한 추가 정보를 요청하는 후속 질문을 생성하세요.

## 대화 내용
%s

## 부족한 정보
%s

## 규칙
- 한국어로 질문하세요.
- 최대 2~3개의 질문만 하세요.
- 친절하지만 간결하게 작성하세요.
- Moalog 프로젝트의 도메인 맥락을 고려하여 질문하세요.
- 질문만 출력하세요. 추가 설명은 불필요합니다.`, conversation, missingText)
}

// draftPrompt builds the issue-draft prompt from the collected record.
func draftPrompt(record IssueRecord) string {
	labelsText := "없음"
	if len(record.Labels) > 0 {
		labelsText = strings.Join(record.Labels, ", ")
	}
	severity := record.Severity
	if severity == "" {
		severity = SeverityMinor
	}

	return fmt.Sprintf(`아래 정보를 바탕으로 GitHub 이슈 초안을 작성하세요.

## 수집된 정보
- 제목: %s
- 설명: %s
- 유형: %s
- 도메인: %s
- 심각도: %s
- 재현 단계: %s
- 기대 동작: %s
- 실제 동작: %s
- 환경 정보: %s
- 라벨: %s

## 출력 형식

`+"```json"+`
{
    "draft_title": "이슈 제목",
    "draft_body": "이슈 본문 (마크다운 형식, 한국어)"
}
`+"```"+`

## 규칙
- 한국어로 작성하세요.
- 이슈 본문은 마크다운 형식으로 작성하세요.
- 기술 용어는 원어 그대로 사용하세요.
- 버그인 경우 재현 단계, 기대 동작, 실제 동작을 포함하세요.
- feature/improvement인 경우 배경, 제안, 기대 효과를 포함하세요.

JSON만 출력하세요.`,
		record.Title, record.Description, record.Category, record.Domain, severity,
		orNotApplicable(record.ReproductionSteps), orNotApplicable(record.ExpectedBehavior),
		orNotApplicable(record.ActualBehavior), orNotApplicable(record.Environment), labelsText)
}

// judgePrompt builds the auto-resolve feasibility prompt for a drafted issue.
func judgePrompt(title, body string, category Category, domain Domain) string {
	return fmt.Sprintf(`아래 GitHub 이슈가 AI(claude-code-action)로 자동 해결 가능한지 판단하세요.

## 이슈 정보

- **제목**: %s
- **설명**: %s
- **유형**: %s
- **도메인**: %s

## 판단 기준

### 자동 해결 가능 (auto_resolve: true)
- 오타 수정, 문자열 변경
- 간단한 버그 수정 (off-by-one, null 체크 누락, 조건문 오류)
- 설정값 변경 (환경변수, CORS 도메인 추가, timeout 조정)
- 에러 메시지 개선
- 로깅 추가
- 간단한 유효성 검증 추가
- 문서 업데이트 (README, 주석)
- 단순한 CRUD 엔드포인트 추가 (기존 패턴 따라가는 경우)
- 기존 코드의 리팩토링 (명확한 before/after가 있는 경우)

### 자동 해결 불가 (auto_resolve: false)
- 복잡한 아키텍처 변경 (레이어 구조 변경, 새로운 미들웨어 도입)
- 새로운 외부 서비스 연동 (새로운 OAuth 프로바이더, 결제 시스템)
- DB 스키마 대규모 변경 (테이블 추가, 관계 변경)
- 보안 관련 중요 변경 (인증 플로우 변경, 권한 체계 수정)
- 성능 최적화 (쿼리 최적화, 캐싱 전략)
- 비즈니스 로직의 근본적인 변경
- 요구사항이 모호하거나 추가 논의가 필요한 경우

### 조건부 가능 (상세 스펙이 있으면 가능)
- 새로운 API 엔드포인트 (기존 handler/service 패턴이 명확한 경우)
- 새로운 DTO 추가 (필드가 명확히 정의된 경우)
- 에러 핸들링 패턴 추가 (기존 AppError 패턴 따르는 경우)

## Moalog 프로젝트 특성

- Rust/Axum 프로젝트이므로 타입 시스템이 엄격함
- SeaORM 엔티티 변경은 마이그레이션 필요
- handler → service → entity 레이어 구조를 따름
- 에러는 AppError enum에 변형 추가 필요

## 출력 형식

`+"```json"+`
{
    "auto_resolve": true | false,
    "confidence": "high | medium | low",
    "reason": "판단 근거를 한국어로 1~2문장으로 설명"
}
`+"```"+`

- **confidence 기준**:
  - high: 확실히 자동 해결 가능/불가능한 경우
  - medium: 조건부로 가능하거나, 상세 스펙에 따라 달라지는 경우
  - low: 판단이 어렵거나 추가 정보가 필요한 경우

JSON만 출력하세요.`, title, body, category, domain)
}

func orNotApplicable(s string) string {
	if s == "" {
		return "해당 없음"
	}
	return s
}

// formatHistory renders turns as "[role]: content" lines with each turn's
// content bounded, for embedding in prompts.
func formatHistory(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("[%s]: %s", t.Role, TruncateContent(t.Content)))
	}
	return strings.Join(lines, "\n")
}
