package fewshot

import "github.com/toktokhan/chatbot-engine/internal/intent"

// defaultExamples seeds every registry created with NewDefaultRegistry.
var defaultExamples = map[intent.Category][]Example{
	intent.CategoryCompany: {
		{
			Question: "이 회사는 뭐하는 회사인가요?",
			Answer:   `안녕하세요! 저희 똑똑한개발자는 혁신적인 IT 솔루션을 제공하는 개발 전문 회사입니다.

🏢 **회사 개요**
- 설립: 2020년 (4년차 성장 기업)
- 전문분야: 웹/앱 개발, AI 솔루션, 클라우드 서비스
- 팀 구성: 시니어 개발자 중심의 전문 인력

💡 **핵심 강점**
- 최신 기술 스택 기반 개발
- 고객 맞춤형 솔루션 제공
- 빠른 개발 주기와 안정적인 운영

🎯 **주요 고객층**
- 스타트업부터 중견기업까지
- 디지털 전환이 필요한 기업들`,
		},
		{
			Question: "팀 구성은 어떻게 되나요?",
			Answer:   `저희 팀은 각 분야별 전문가들로 구성되어 있습니다.

👥 **팀 구성**
- **개발팀 (17명)**: 풀스택, 프론트엔드, 백엔드 전문가
- **디자인팀 (8명)**: UI/UX, 그래픽 디자인
- **기획팀 (4명)**: 프로젝트 매니저

🌟 **팀의 특징**
- 평균 경력 5년+ 시니어 개발자 중심
- 애자일 방법론 기반 협업
- 지속적인 기술 학습과 공유 문화`,
		},
	},
	intent.CategoryProject: {
		{
			Question: "어떤 프로젝트를 진행했나요?",
			Answer:   `다양한 분야의 혁신적인 프로젝트들을 성공적으로 완료했습니다.

🌟 **대표 프로젝트**

**💰 핀테크 플랫폼**
- 개발기간: 8개월, 팀 규모: 6명
- 기술스택: React, Django, PostgreSQL, Redis
- 주요기능: 간편결제, 자산관리, 투자상품 연동

**🛒 이커머스 솔루션**
- 개발기간: 6개월, 팀 규모: 5명  
- 기술스택: Vue.js, FastAPI, MongoDB
- 주요기능: 상품관리, 주문결제, 재고관리, 분석대시보드

**🤖 AI 챗봇 시스템**
- 개발기간: 4개월, 팀 규모: 4명
- 기술스택: Python, LangChain, OpenAI API, Chroma
- 주요기능: 자연어 처리, 문서 검색, 학습 기능`,
		},
		{
			Question: "포트폴리오 하이라이트를 보여주세요",
			Answer:   `저희의 대표적인 성공 사례들을 소개해드리겠습니다.

🏆 **포트폴리오 하이라이트**

**1. 스마트 물류 관리 시스템**
- 대기업 계열사 프로젝트
- 개발기간: 10개월, 투입인력: 8명
- 성과: 업무 효율성 40% 향상, 비용 절감 30%

**2. 헬스케어 모바일 앱**
- 의료진-환자 연결 플랫폼
- 월 활성 사용자 50,000명 돌파
- 앱스토어 평점 4.8점 유지

**3. 교육 플랫폼 구축**
- 온라인 학습 관리 시스템
- 동시 접속자 10,000명 처리 가능
- 실시간 화상 수업 기능 구현`,
		},
	},
	intent.CategoryTech: {
		{
			Question: "React 개발 가능한가요?",
			Answer:   `네! React는 저희의 핵심 프론트엔드 기술입니다.

⚛️ **React 전문 역량**
- **경험**: 3년+ 실무 경험, 10개+ 프로덕션 프로젝트
- **관련 기술**: Next.js, TypeScript, Redux Toolkit, React Query
- **프로젝트 규모**: 소규모 랜딩페이지부터 대규모 SPA까지

🛠️ **개발 전문성**
- 성능 최적화 (Code Splitting, Lazy Loading)
- 반응형 디자인 및 크로스브라우징
- 테스트 코드 작성 (Jest, React Testing Library)
- 상태 관리 패턴 설계

📈 **최근 React 프로젝트**
- 핀테크 대시보드 (TypeScript + Next.js)
- 실시간 채팅 앱 (Socket.io 연동)
- 관리자 페이지 (Material-UI 활용)`,
		},
		{
			Question: "백엔드 개발은 어떤 기술을 사용하나요?",
			Answer:   `다양한 백엔드 기술 스택으로 안정적인 서버를 구축합니다.

🔧 **주요 백엔드 기술**

**Python 생태계**
- Django REST Framework (API 서버)
- FastAPI (고성능 비동기 API)
- Celery (백그라운드 작업 처리)

**Node.js 생태계**  
- Express.js (빠른 프로토타이핑)
- NestJS (엔터프라이즈급 애플리케이션)

**데이터베이스**
- PostgreSQL (관계형 DB)
- MongoDB (NoSQL)
- Redis (캐싱, 세션 관리)

☁️ **클라우드 & 인프라**
- AWS (EC2, RDS, S3, Lambda)
- Docker 컨테이너화
- CI/CD 파이프라인 구축`,
		},
	},
	intent.CategoryGeneral: {
		{
			Question: "견적 문의는 어떻게 하나요?",
			Answer:   `프로젝트 견적 문의는 여러 방법으로 가능합니다.

📞 **견적 문의 방법**
- **이메일**: contact@toktokhan.dev
- **전화**: 02-1234-5678 (평일 9시-18시)
- **카카오톡**: @똑똑한개발자
- **홈페이지**: 온라인 견적 문의 폼 작성

📋 **견적에 필요한 정보**
- 프로젝트 개요 및 목적
- 주요 기능 요구사항
- 예상 일정 및 예산 범위
- 참고 사이트나 앱이 있다면

⏰ **견적 제공 일정**
- 간단한 프로젝트: 1-2일 내
- 복잡한 프로젝트: 3-5일 내 상세 제안서 제공

💡 **무료 컨설팅**
- 초기 기획 단계 무료 상담 가능
- 기술 스택 추천 및 아키텍처 설계 조언`,
		},
	},
}
