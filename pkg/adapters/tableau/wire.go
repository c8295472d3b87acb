package tableau

type siteRef struct {
	ID         string `json:"id,omitempty"`
	ContentURL string `json:"contentUrl"`
}

type signInRequest struct {
	Credentials struct {
		JWT  string  `json:"jwt"`
		Site siteRef `json:"site"`
	} `json:"credentials"`
}

type signInResponse struct {
	Credentials struct {
		Token string  `json:"token"`
		Site  siteRef `json:"site"`
	} `json:"credentials"`
}

type pagination struct {
	PageNumber     flexInt `json:"pageNumber"`
	PageSize       flexInt `json:"pageSize"`
	TotalAvailable flexInt `json:"totalAvailable"`
}

type workbooksResponse struct {
	Pagination pagination `json:"pagination"`
	Workbooks  struct {
		Workbook []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"workbook"`
	} `json:"workbooks"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type workbookQueryResponse struct {
	Data struct {
		Workbooks []map[string]any `json:"workbooks"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
