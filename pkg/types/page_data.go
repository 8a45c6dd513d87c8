package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
	UserName        string
	AvatarURL       string
	IsAdmin         bool
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type HomePageData struct {
	BasePageData
	Notice     string
	Error      string
	Ads        []*Ad
	Categories []Category
	Filter     FeedFilter
	NextOffset uint64
	HasMore    bool
	Generation uint64
}

type FeedFilter struct {
	Category string
	Search   string
}

type AdDetailPageData struct {
	BasePageData
	Ad           *Ad
	WhatsAppLink string
	PostedLabel  string
}

type LoginPageData struct {
	BasePageData
	Error     string
	Notice    string
	Email     string
	Phone     string
	OTPSent   bool
	FieldErrs map[string]string
}

type RegisterPageData struct {
	BasePageData
	Error       string
	Email       string
	FirstName   string
	LastName    string
	FieldErrors map[string]string
}

type PostAdPageData struct {
	BasePageData
	Step       int
	Draft      *DraftAd
	Categories []Category
	Cities     []string
	Error      string
	Notice     string
}

type ProfilePageData struct {
	BasePageData
	Notice    string
	Error     string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
}

type MyAdsPageData struct {
	BasePageData
	Notice string
	Error  string
	Ads    []*Ad
}

type ContactPageData struct {
	BasePageData
	Notice string
	Error  string
}

type AdminPageData struct {
	BasePageData
	Notice         string
	Error          string
	UsersCount     int64
	AdsCount       int64
	MessagesCount  int64
	RecentAds      []*Ad
	RecentMessages []*ContactMessage
}
