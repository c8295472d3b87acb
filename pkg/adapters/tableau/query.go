package tableau

// workbookQuery fetches one workbook with its sheets and the published data sources
// behind each sheet's embedded data sources.
const workbookQuery = `
query workbooks($luid: String!) {
  workbooks(filter: {luid: $luid}) {
    luid
    name
    createdAt
    updatedAt
    uri
    sheets {
      luid
      name
      createdAt
      updatedAt
      path
      parentEmbeddedDatasources {
        parentPublishedDatasources {
          luid
          name
        }
      }
    }
  }
}
`
