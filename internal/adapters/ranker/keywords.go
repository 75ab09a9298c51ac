package ranker

// 점수표는 불변 설정 데이터다. 업종이나 키워드를 늘릴 때는 이 파일만 고친다.

// industryKeywords는 업종 라벨을 연관 키워드 집합으로 잇는다.
// 등록되지 않은 업종은 빈 집합으로 취급한다.
var industryKeywords = map[string][]string{
	"음식점": {"음식", "외식", "식당", "요식", "배달", "위생", "식품"},
	"소매업": {"소매", "유통", "판매", "매장", "상점"},
	"서비스업": {"서비스", "프리랜서", "용역"},
	"제조업": {"제조", "생산", "공장", "산업"},
}

// regions는 타 지역 배제 판정에 쓰는 주요 행정구역 목록이다.
var regions = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
	"수원", "성남", "고양", "용인", "부천", "안산", "안양", "남양주", "화성",
	"청주", "천안", "전주", "포항", "창원", "김해",
}

// nationwideKeywords가 본문에 있으면 타 지역 언급이 있어도 배제하지 않는다.
var nationwideKeywords = []string{"전국", "정부", "방방곡곡"}

// genericKeywords는 누구에게나 관심도가 높은 공통 키워드다. 건당 +1.
var genericKeywords = []string{"소상공인", "지원", "신청", "마감", "혜택", "무료"}

const (
	industryMatchScore = 2
	regionMatchScore   = 5
	regionMismatch     = -100
	interestMatchScore = 2
	genericMatchScore  = 1
)
